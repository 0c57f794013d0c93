package extract

import (
	"strings"
	"testing"

	resumeforgeErrors "resumeforge/internal/errors"
)

func TestExtractTextFormats(t *testing.T) {
	e := NewTextExtractor()

	tests := []struct {
		name     string
		filename string
		data     string
		want     string
	}{
		{
			name:     "plain text",
			filename: "posting.txt",
			data:     "Senior Go engineer.\nKubernetes required.",
			want:     "Senior Go engineer.\nKubernetes required.",
		},
		{
			name:     "markdown keeps markup",
			filename: "posting.md",
			data:     "# Senior Go Engineer\n\n- Kubernetes\n- Terraform",
			want:     "# Senior Go Engineer\n\n- Kubernetes\n- Terraform",
		},
		{
			name:     "long markdown extension",
			filename: "posting.markdown",
			data:     "Platform team opening.",
			want:     "Platform team opening.",
		},
		{
			name:     "uppercase extension",
			filename: "POSTING.TXT",
			data:     "On-call rotation, SLOs, capacity planning.",
			want:     "On-call rotation, SLOs, capacity planning.",
		},
		{
			name:     "byte order mark stripped",
			filename: "posting.txt",
			data:     "\ufeffStaff engineer, infra.",
			want:     "Staff engineer, infra.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractText([]byte(tt.data), tt.filename)
			if err != nil {
				t.Fatalf("ExtractText() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractTextRejections(t *testing.T) {
	e := NewTextExtractor()

	tests := []struct {
		name       string
		filename   string
		data       []byte
		wantSubstr string
	}{
		{
			name:       "pdf unsupported",
			filename:   "resume.pdf",
			data:       []byte("%PDF-1.7"),
			wantSubstr: "Unsupported file format: .pdf",
		},
		{
			name:       "docx unsupported",
			filename:   "resume.docx",
			data:       []byte("PK"),
			wantSubstr: "Unsupported file format: .docx",
		},
		{
			name:       "no extension",
			filename:   "README",
			data:       []byte("hello"),
			wantSubstr: "Unsupported file format: README",
		},
		{
			name:       "empty file",
			filename:   "posting.txt",
			data:       nil,
			wantSubstr: "File is empty",
		},
		{
			name:       "not utf-8",
			filename:   "posting.txt",
			data:       []byte{0xff, 0xfe, 0xfd},
			wantSubstr: "not valid UTF-8",
		},
		{
			name:       "whitespace only",
			filename:   "posting.txt",
			data:       []byte("  \n\t  "),
			wantSubstr: "no text content",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.ExtractText(tt.data, tt.filename)
			if !resumeforgeErrors.IsValidation(err) {
				t.Fatalf("ExtractText() error = %v, want validation error", err)
			}
			if !strings.Contains(err.Error(), tt.wantSubstr) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantSubstr)
			}
		})
	}
}
