package networkdrive

import (
	"fmt"
	"strconv"
	"strings"
)

// ACE types as numbered in the security descriptor wire format.
const (
	AceAccessAllowed         = 0
	AceAccessDenied          = 1
	AceSystemAudit           = 2
	AceSystemAlarm           = 3
	AceAccessAllowedObject   = 5
	AceAccessDeniedObject    = 6
	AceAccessAllowedCallback = 9
	AceAccessDeniedCallback  = 10

	// deniedWriteMask is kept alongside allowed ACEs.
	deniedWriteMask = 278
)

var aceTypes = map[string]int{
	"A":  AceAccessAllowed,
	"D":  AceAccessDenied,
	"AU": AceSystemAudit,
	"AL": AceSystemAlarm,
	"OA": AceAccessAllowedObject,
	"OD": AceAccessDeniedObject,
	"XA": AceAccessAllowedCallback,
	"XD": AceAccessDeniedCallback,
}

var rightAliases = map[string]uint32{
	"GA": 0x10000000,
	"GX": 0x20000000,
	"GW": 0x40000000,
	"GR": 0x80000000,
	"RC": 0x00020000,
	"SD": 0x00010000,
	"WD": 0x00040000,
	"WO": 0x00080000,
	"FA": 0x001F01FF,
	"FR": 0x00120089,
	"FW": 0x00120116,
	"FX": 0x001200A0,
	"KA": 0x000F003F,
	"KR": 0x00020019,
	"KW": 0x00020006,
	"KX": 0x00020019,
	"CC": 0x00000001,
	"DC": 0x00000002,
	"LC": 0x00000004,
	"SW": 0x00000008,
	"RP": 0x00000010,
	"WP": 0x00000020,
	"DT": 0x00000040,
	"LO": 0x00000080,
	"CR": 0x00000100,
}

// sidAliases resolves the machine-independent SDDL sid strings. Domain
// relative aliases (DA, DU, EA, ...) depend on the domain sid and stay
// unresolved.
var sidAliases = map[string]string{
	"AC": "S-1-15-2-1",
	"AN": "S-1-5-7",
	"AO": "S-1-5-32-548",
	"AU": "S-1-5-11",
	"BA": "S-1-5-32-544",
	"BG": "S-1-5-32-546",
	"BO": "S-1-5-32-551",
	"BU": "S-1-5-32-545",
	"CG": "S-1-3-1",
	"CO": "S-1-3-0",
	"CY": "S-1-5-32-569",
	"ED": "S-1-5-9",
	"ER": "S-1-5-32-573",
	"IS": "S-1-5-32-568",
	"IU": "S-1-5-4",
	"LS": "S-1-5-19",
	"LU": "S-1-5-32-559",
	"MU": "S-1-5-32-558",
	"NO": "S-1-5-32-556",
	"NS": "S-1-5-20",
	"NU": "S-1-5-2",
	"OW": "S-1-3-4",
	"PS": "S-1-5-10",
	"PU": "S-1-5-32-547",
	"RC": "S-1-5-12",
	"RD": "S-1-5-32-555",
	"RE": "S-1-5-32-552",
	"RU": "S-1-5-32-554",
	"SO": "S-1-5-32-549",
	"SU": "S-1-5-6",
	"SY": "S-1-5-18",
	"WD": "S-1-1-0",
	"WR": "S-1-5-33",
}

// ACE is one access control entry of a DACL.
type ACE struct {
	Type int
	Mask uint32
	SID  string
}

// Resolved reports whether SID is a full security identifier rather than an
// alias that needs the domain sid.
func (a ACE) Resolved() bool {
	return strings.HasPrefix(a.SID, "S-")
}

// Granting reports whether the entry contributes a permission token.
func (a ACE) Granting() bool {
	return a.Type == AceAccessAllowed || a.Mask == deniedWriteMask
}

// ParseDACL extracts the DACL entries of an SDDL string.
func ParseDACL(sddl string) ([]ACE, error) {
	start := strings.Index(sddl, "D:")
	if start < 0 {
		return nil, nil
	}

	var aces []ACE
	rest := sddl[start+2:]
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case '(':
			end := strings.IndexByte(rest[i:], ')')
			if end < 0 {
				return nil, fmt.Errorf("unterminated ACE in %q", sddl)
			}
			ace, err := parseACE(rest[i+1 : i+end])
			if err != nil {
				return nil, err
			}
			aces = append(aces, ace)
			i += end
		case 'S':
			if i+1 < len(rest) && rest[i+1] == ':' {
				return aces, nil
			}
		}
	}
	return aces, nil
}

func parseACE(s string) (ACE, error) {
	fields := strings.Split(s, ";")
	if len(fields) < 6 {
		return ACE{}, fmt.Errorf("malformed ACE %q", s)
	}

	typ, ok := aceTypes[fields[0]]
	if !ok {
		return ACE{}, fmt.Errorf("unknown ACE type %q", fields[0])
	}
	mask, err := parseRights(fields[2])
	if err != nil {
		return ACE{}, err
	}
	sid := fields[5]
	if full, ok := sidAliases[sid]; ok {
		sid = full
	}
	return ACE{Type: typ, Mask: mask, SID: sid}, nil
}

func parseRights(s string) (uint32, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid access mask %q", s)
		}
		return uint32(v), nil
	}
	if len(s)%2 != 0 {
		return 0, fmt.Errorf("invalid access rights %q", s)
	}
	var mask uint32
	for i := 0; i < len(s); i += 2 {
		bit, ok := rightAliases[s[i:i+2]]
		if !ok {
			return 0, fmt.Errorf("unknown access right %q", s[i:i+2])
		}
		mask |= bit
	}
	return mask, nil
}
