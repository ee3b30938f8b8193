package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/blacktop/il2cppdump/internal/colors"
)

var zerosRE = regexp.MustCompile(`\s(00\s)+|\.`)

func colorZeros(dump string) string {
	if !colors.Enabled() {
		return dump
	}
	zero := colors.Zero().SprintFunc()
	return zerosRE.ReplaceAllStringFunc(dump, func(s string) string {
		return zero(s)
	})
}

// HexDump formats data like `hexdump -C`, with offsets starting at vaddr.
func HexDump(data []byte, vaddr uint64) string {
	var sb strings.Builder
	for off := 0; off < len(data); off += 16 {
		row := data[off:min(off+16, len(data))]
		fmt.Fprintf(&sb, "%08x:  ", vaddr+uint64(off))
		for i := 0; i < 16; i++ {
			if i < len(row) {
				fmt.Fprintf(&sb, "%02x ", row[i])
			} else {
				sb.WriteString("   ")
			}
			if i == 7 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(" |")
		for _, b := range row {
			if b < 32 || b > 126 {
				b = '.'
			}
			sb.WriteByte(b)
		}
		sb.WriteString("|\n")
	}
	return colorZeros(sb.String())
}
