// Package csource renders a byte slice as a C array definition suitable for
// compiling straight into firmware.
package csource

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// BytesPerLine is the number of byte literals emitted per output line.
const BytesPerLine = 16

// Config controls the text surrounding the array.
type Config struct {
	// Comments are emitted first, one "// " line each.
	Comments []string

	// Includes are emitted verbatim after "#include ", so each must carry
	// its own quotes or angle brackets.
	Includes []string

	// Attribute prefixes the declaration (for example a linker section
	// macro). Empty means no attribute.
	Attribute string

	// ElemType is the declared element type.
	ElemType string
}

// DefaultConfig matches the header expected by the firmware build.
func DefaultConfig() Config {
	return Config{
		Includes:  []string{`"tcs_xxx_config.h"`, `<stdint.h>`},
		Attribute: "EXTFLASH_MEM_ATTRIBUTE",
		ElemType:  "const uint8_t",
	}
}

const hexDigits = "0123456789ABCDEF"

// Write emits data as the array name[] to w.
func Write(w io.Writer, name string, data []byte, cfg Config) error {
	bw := bufio.NewWriter(w)

	for _, c := range cfg.Comments {
		fmt.Fprintf(bw, "// %s\n", c)
	}
	for _, inc := range cfg.Includes {
		fmt.Fprintf(bw, "#include %s\n", inc)
	}
	if len(cfg.Comments) > 0 || len(cfg.Includes) > 0 {
		bw.WriteByte('\n')
	}

	decl := strings.TrimSpace(cfg.Attribute + " " + cfg.ElemType)
	fmt.Fprintf(bw, "%s %s[] =\n{\n", decl, Identifier(name))

	last := len(data) - 1
	lit := []byte("0x00")
	for i, b := range data {
		if i%BytesPerLine == 0 {
			bw.WriteString("    ")
		}
		lit[2] = hexDigits[b>>4]
		lit[3] = hexDigits[b&0x0f]
		bw.Write(lit)
		switch {
		case i == last:
			bw.WriteByte('\n')
		case i%BytesPerLine == BytesPerLine-1:
			bw.WriteString(",\n")
		default:
			bw.WriteString(", ")
		}
	}
	bw.WriteString("};\n")

	return bw.Flush()
}

// Identifier turns s into a valid C identifier by replacing every
// character outside [A-Za-z0-9_] with an underscore.
func Identifier(s string) string {
	if s == "" {
		return "blob"
	}
	var sb strings.Builder
	if s[0] >= '0' && s[0] <= '9' {
		sb.WriteByte('_')
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			sb.WriteByte(c)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
