package networkdrive

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/hirochachacha/go-smb2"
)

// FileEntry is the metadata of one entry of the share.
type FileEntry struct {
	Name string
	Dir  bool
	// Size is the allocation size reported by the server.
	Size    int64
	Created time.Time
	Changed time.Time
}

// Share is a mounted file share. Paths are slash separated and relative to
// the configured base directory; "" is the base directory itself.
type Share interface {
	ReadDir(ctx context.Context, dir string) ([]FileEntry, error)
	Stat(ctx context.Context, name string) (FileEntry, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Close() error
}

// ShareDialer opens a session and mounts the configured share.
type ShareDialer func(ctx context.Context, cfg Config) (Share, error)

type smbShare struct {
	conn    net.Conn
	session *smb2.Session
	share   *smb2.Share
	base    string

	once     sync.Once
	closeErr error
}

// DialSMB authenticates with NTLM and mounts the share named by the drive path.
func DialSMB(ctx context.Context, cfg Config) (Share, error) {
	dialer := net.Dialer{Timeout: cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Address())
	if err != nil {
		return nil, fmt.Errorf("failed to reach %s: %w", cfg.Address(), err)
	}

	d := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     cfg.Username,
			Password: cfg.Password,
		},
	}
	session, err := d.DialContext(ctx, conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open SMB session: %w", err)
	}

	share, err := session.WithContext(ctx).Mount(`\\` + cfg.ServerIP + `\` + cfg.ShareName())
	if err != nil {
		session.Logoff()
		conn.Close()
		return nil, fmt.Errorf("failed to mount %s: %w", cfg.ShareName(), err)
	}

	return &smbShare{conn: conn, session: session, share: share, base: cfg.BaseDir()}, nil
}

func (s *smbShare) resolve(name string) string {
	full := path.Join(s.base, name)
	if full == "." {
		return ""
	}
	return strings.ReplaceAll(full, "/", `\`)
}

func (s *smbShare) ReadDir(ctx context.Context, dir string) ([]FileEntry, error) {
	infos, err := s.share.WithContext(ctx).ReadDir(s.resolve(dir))
	if err != nil {
		return nil, err
	}
	out := make([]FileEntry, 0, len(infos))
	for _, fi := range infos {
		out = append(out, toEntry(fi))
	}
	return out, nil
}

func (s *smbShare) Stat(ctx context.Context, name string) (FileEntry, error) {
	fi, err := s.share.WithContext(ctx).Stat(s.resolve(name))
	if err != nil {
		return FileEntry{}, err
	}
	return toEntry(fi), nil
}

func (s *smbShare) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	f, err := s.share.WithContext(ctx).Open(s.resolve(name))
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *smbShare) Close() error {
	s.once.Do(func() {
		if err := s.share.Umount(); err != nil {
			s.closeErr = err
		}
		if err := s.session.Logoff(); err != nil && s.closeErr == nil {
			s.closeErr = err
		}
		s.conn.Close()
	})
	return s.closeErr
}

func toEntry(fi os.FileInfo) FileEntry {
	entry := FileEntry{
		Name:    fi.Name(),
		Dir:     fi.IsDir(),
		Size:    fi.Size(),
		Created: fi.ModTime(),
		Changed: fi.ModTime(),
	}
	if stat, ok := fi.(*smb2.FileStat); ok {
		entry.Size = stat.AllocationSize
		entry.Created = stat.CreationTime
		entry.Changed = stat.ChangeTime
	}
	return entry
}
