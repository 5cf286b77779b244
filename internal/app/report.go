package app

import (
	"bufio"
	"io"
)

// WriteReport prints one candidate path per line, in order.
func WriteReport(w io.Writer, candidates []string) error {
	bw := bufio.NewWriter(w)
	for _, c := range candidates {
		if _, err := bw.WriteString(c); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
