package app

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

type ValidateRequest struct {
	Path string
}

type ValidateResult struct {
	Format  string
	Records int
	Names   []string

	// Skipped is true when the file is valid JSON but no registered
	// format recognizes it; the import would end without processing.
	Skipped bool
}

// Validate is a dry run: detect and parse the input without touching the
// database.
func (s Service) Validate(_ context.Context, req ValidateRequest) (ValidateResult, error) {
	path := strings.TrimSpace(req.Path)
	if path == "" {
		return ValidateResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("input path is required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return ValidateResult{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("input file not found").
			WithCause(err)
	}

	var root map[string]any
	if err := json.Unmarshal(raw, &root); err != nil {
		return ValidateResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("input is not a JSON object").
			WithCause(err)
	}

	format, ok := s.Formats.Detect(root)
	if !ok {
		return ValidateResult{Skipped: true}, nil
	}

	records, err := format.Parse(root)
	if err != nil {
		return ValidateResult{}, err
	}

	names := make([]string, 0, len(records))
	for _, record := range records {
		name := record.ProcessName
		if name == "" {
			name = "(unnamed)"
		}
		names = append(names, name)
	}
	return ValidateResult{Format: format.Name(), Records: len(records), Names: names}, nil
}
