package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	errx "github.com/pmc-chatbot/server/internal/core/error"
	logx "github.com/pmc-chatbot/server/pkg/logger"
)

// Corpus is the flattened text representation of all department/service
// records. Built once at startup and treated as read-only afterwards.
type Corpus string

// Service mirrors one service record of the municipal services JSON. Several
// fields carry mixed types in the source data (list-or-string documents,
// map-or-string approval process), so they decode as any.
type Service struct {
	Name                 string `json:"Service"`
	ServiceID            string `json:"service_id"`
	Description          string `json:"description"`
	DocumentsRequired    any    `json:"Documents Required"`
	ApprovalProcess      any    `json:"Levels of Approval / process"`
	PhysicalVerification string `json:"Physical Verification"`
	OutputFormat         string `json:"Output Certificate Format"`
	ApplicationLink      string `json:"application link / url"`
}

// Department groups the services offered by one PMC department.
type Department struct {
	Name     string    `json:"Department"`
	Services []Service `json:"Service"`
}

// Loader reads the municipal services JSON from disk.
type Loader struct {
	path string
}

func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads and flattens the services data. Fails with a typed load error
// on a missing or malformed source file.
func (l *Loader) Load() (Corpus, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return "", errx.LoadError(fmt.Errorf("read %s: %w", l.path, err))
	}

	var departments []Department
	if err := json.Unmarshal(raw, &departments); err != nil {
		return "", errx.LoadError(fmt.Errorf("parse %s: %w", l.path, err))
	}

	logx.Info().Int("departments", len(departments)).Msg("Loaded municipal services data")
	return Flatten(departments), nil
}

// Flatten renders the structured records into the text corpus handed to the
// model. Deterministic: approval levels are emitted in sorted order.
func Flatten(departments []Department) Corpus {
	var b strings.Builder
	b.WriteString("PUNE MUNICIPAL CORPORATION SERVICES DATABASE:\n\n")

	for _, dept := range departments {
		b.WriteString("DEPARTMENT: " + dept.Name + "\n")
		b.WriteString(strings.Repeat("=", 50) + "\n")

		for _, svc := range dept.Services {
			b.WriteString("\nSERVICE: " + svc.Name + "\n")
			b.WriteString("Service ID: " + svc.ServiceID + "\n")
			b.WriteString("Description: " + svc.Description + "\n")
			writeDocuments(&b, svc.DocumentsRequired)
			writeApprovalProcess(&b, svc.ApprovalProcess)
			b.WriteString("Physical Verification: " + valueOr(svc.PhysicalVerification, "Not specified") + "\n")
			b.WriteString("Output Certificate Format: " + valueOr(svc.OutputFormat, "Not specified") + "\n")
			b.WriteString("Application Link: " + valueOr(svc.ApplicationLink, "Not available") + "\n")
			b.WriteString(strings.Repeat("-", 40) + "\n")
		}

		b.WriteString("\n")
	}

	return Corpus(b.String())
}

func writeDocuments(b *strings.Builder, docs any) {
	switch v := docs.(type) {
	case []any:
		if len(v) == 0 || (len(v) == 1 && fmt.Sprint(v[0]) == "No Documents are required") {
			b.WriteString("Required Documents: No documents required\n")
			return
		}
		b.WriteString("Required Documents:\n")
		for _, doc := range v {
			b.WriteString("   - " + fmt.Sprint(doc) + "\n")
		}
	case string:
		b.WriteString("Required Documents: " + v + "\n")
	default:
		b.WriteString("Required Documents: No documents specified\n")
	}
}

func writeApprovalProcess(b *strings.Builder, process any) {
	switch v := process.(type) {
	case map[string]any:
		b.WriteString("Approval Process:\n")
		levels := make([]string, 0, len(v))
		for level := range v {
			levels = append(levels, level)
		}
		sort.Strings(levels)
		for _, level := range levels {
			approver := fmt.Sprint(v[level])
			if approver == "" || approver == "-" {
				continue
			}
			b.WriteString("   " + level + ": " + approver + "\n")
		}
	case string:
		b.WriteString("Approval Process: " + v + "\n")
	default:
		b.WriteString("Approval Process: Not specified\n")
	}
}

func valueOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
