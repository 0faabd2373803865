package pdf

import (
	"testing"

	"github.com/jdziat/pdfbatch/internal/pdftest"
)

func writeTestPDF(t *testing.T, dir, name string, pages int) string {
	t.Helper()
	return pdftest.Write(t, dir, name, pages)
}
