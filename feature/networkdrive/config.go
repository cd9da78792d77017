package networkdrive

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"connector-service/core/directory"
	"connector-service/core/source"
	"connector-service/core/utils"
)

const (
	// ServiceType is the registry key of the network drive source.
	ServiceType = "network_drive"

	defaultSMBPort   = 445
	defaultWinRMPort = 5985
	defaultTimeout   = 60 * time.Second
)

// Config is the decoded connector configuration of a network drive.
type Config struct {
	Username   string
	Password   string
	ServerIP   string
	ServerPort int
	// DrivePath is "<share>[/<folder>...]", slashes or backslashes.
	DrivePath                string
	UseDocumentLevelSecurity bool
	WinRMPort                int
	Timeout                  time.Duration
}

// ConfigFromConnector decodes and validates the configuration of connector.
func ConfigFromConnector(connector *directory.Connector) (Config, error) {
	var errs []error

	port, err := utils.ToInt(connector.Value("server_port"))
	if err != nil {
		errs = append(errs, fmt.Errorf("server_port: %w", err))
	}
	winrmPort, err := utils.ToInt(connector.Value("winrm_port"))
	if err != nil {
		errs = append(errs, fmt.Errorf("winrm_port: %w", err))
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}

	cfg := Config{
		Username:                 utils.ToString(connector.Value("username")),
		Password:                 utils.ToString(connector.Value("password")),
		ServerIP:                 utils.ToString(connector.Value("server_ip")),
		ServerPort:               port,
		DrivePath:                utils.ToString(connector.Value("drive_path")),
		UseDocumentLevelSecurity: connector.DocumentLevelSecurity(),
		WinRMPort:                winrmPort,
		Timeout:                  defaultTimeout,
	}
	if cfg.ServerPort == 0 {
		cfg.ServerPort = defaultSMBPort
	}
	if cfg.WinRMPort == 0 {
		cfg.WinRMPort = defaultWinRMPort
	}

	return cfg, cfg.Validate()
}

// Validate checks that every required value is present.
func (c Config) Validate() error {
	var errs []error
	if c.Username == "" {
		errs = append(errs, errors.New("username is required"))
	}
	if c.ServerIP == "" {
		errs = append(errs, errors.New("server_ip is required"))
	}
	if c.ShareName() == "" {
		errs = append(errs, errors.New("drive_path is required"))
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("server_port %d is out of range", c.ServerPort))
	}
	if c.WinRMPort <= 0 || c.WinRMPort > 65535 {
		errs = append(errs, fmt.Errorf("winrm_port %d is out of range", c.WinRMPort))
	}
	return errors.Join(errs...)
}

func (c Config) driveSegments() []string {
	var out []string
	for _, part := range strings.FieldsFunc(c.DrivePath, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ShareName is the first segment of the drive path.
func (c Config) ShareName() string {
	segments := c.driveSegments()
	if len(segments) == 0 {
		return ""
	}
	return segments[0]
}

// BaseDir is the folder inside the share the source is rooted at, slash separated.
func (c Config) BaseDir() string {
	segments := c.driveSegments()
	if len(segments) < 2 {
		return ""
	}
	return strings.Join(segments[1:], "/")
}

// Address is the SMB dial address.
func (c Config) Address() string {
	return c.ServerIP + ":" + strconv.Itoa(c.ServerPort)
}

// UNC renders a root-relative slash path as a full UNC path.
func (c Config) UNC(rel string) string {
	parts := []string{`\\` + c.ServerIP, c.ShareName()}
	if base := c.BaseDir(); base != "" {
		parts = append(parts, base)
	}
	if rel != "" {
		parts = append(parts, rel)
	}
	return strings.ReplaceAll(strings.Join(parts, `\`), "/", `\`)
}

// DefaultConfiguration describes the connector fields of a network drive.
func DefaultConfiguration() map[string]source.Field {
	return map[string]source.Field{
		"username":    {Label: "Username", Order: 1, Type: "str", Required: true},
		"password":    {Label: "Password", Order: 2, Type: "str", Sensitive: true, Required: true},
		"server_ip":   {Label: "SMB IP", Order: 3, Type: "str", Required: true},
		"server_port": {Label: "SMB port", Order: 4, Type: "int", Value: defaultSMBPort, Required: true},
		"drive_path":  {Label: "SMB path", Order: 5, Type: "str", Required: true},
		"use_document_level_security": {
			Label: "Enable document level security",
			Order: 6,
			Type:  "bool",
			Value: false,
		},
		"winrm_port": {Label: "WinRM port", Order: 7, Type: "int", Value: defaultWinRMPort},
	}
}
