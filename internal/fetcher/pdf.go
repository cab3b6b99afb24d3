package fetcher

import (
	"bytes"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return strings.TrimSpace(spacePattern.ReplaceAllString(buf.String(), " ")), nil
}

func isPDF(contentType string) bool {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	return clean == "application/pdf"
}
