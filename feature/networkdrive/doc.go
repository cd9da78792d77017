// Package networkdrive is the document source of SMB file shares.
//
// Metadata is listed over SMB2 and content is downloaded lazily, only for
// supported extensions up to MaxFileSize. Advanced rules are glob patterns
// ("**" included) matched against a recursive snapshot of the share, taken on
// first use and kept until RefreshSnapshot or InvalidateSnapshot.
//
// With document level security enabled, every document carries the sids of
// the allowing entries of its DACL, read over WinRM, and GetAccessControl
// yields one identity document per local user of the file server.
package networkdrive
