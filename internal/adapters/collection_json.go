package adapters

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"physics-datasets/internal/ports"
	"physics-datasets/internal/types"
)

// coreRecordKeys are the input keys handled as first-class record fields.
// Everything else lands in the residual metadata, except the files list
// which is large and never needed downstream.
var coreRecordKeys = map[string]struct{}{
	"process-name": {},
	"n-events":     {},
	"path":         {},
	"size":         {},
	"description":  {},
	"comment":      {},
	"status":       {},
	"accelerator":  {},
	"stage":        {},
	"campaign":     {},
	"detector":     {},
	"file-type":    {},
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// ProcessesFormat recognizes the simulation-production shape: a root
// object carrying a "processes" list of dataset objects.
type ProcessesFormat struct{}

func NewProcessesFormat() ProcessesFormat {
	return ProcessesFormat{}
}

func (f ProcessesFormat) Name() string { return "processes" }

func (f ProcessesFormat) Detect(root map[string]any) bool {
	_, ok := root["processes"].([]any)
	return ok
}

func (f ProcessesFormat) Parse(root map[string]any) ([]types.DatasetRecord, error) {
	list, ok := root["processes"].([]any)
	if !ok {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("processes value must be a list")
	}

	records := make([]types.DatasetRecord, 0, len(list))
	for idx, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("process entry " + strconv.Itoa(idx) + " is not an object")
		}
		records = append(records, parseRecord(entry))
	}
	return records, nil
}

func parseRecord(entry map[string]any) types.DatasetRecord {
	record := types.DatasetRecord{
		ProcessName: normalizeString(entry["process-name"]),
		NEvents:     parseInt(entry["n-events"]),
		Path:        trimString(entry["path"]),
		Size:        parseInt(entry["size"]),
		Description: normalizeString(entry["description"]),
		Comment:     normalizeString(entry["comment"]),
		Status:      normalizeString(entry["status"]),
		Accelerator: normalizeString(entry["accelerator"]),
		Stage:       normalizeString(entry["stage"]),
		Campaign:    normalizeString(entry["campaign"]),
		Detector:    normalizeString(entry["detector"]),
		FileType:    normalizeString(entry["file-type"]),
		Extra:       map[string]any{},
	}
	for key, value := range entry {
		if _, core := coreRecordKeys[key]; core {
			continue
		}
		if key == "files" {
			continue
		}
		record.Extra[key] = value
	}
	return record
}

// normalizeString collapses internal whitespace runs and trims, returning
// "" for missing or blank values so meaningless data never gets stored.
func normalizeString(v any) string {
	if v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
}

func trimString(v any) string {
	if v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	return strings.TrimSpace(s)
}

// parseInt tolerates missing, null, and unparsable numeric fields: bad
// values are logged and dropped instead of failing the record.
func parseInt(v any) *int64 {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		n := int64(val)
		return &n
	case int:
		n := int64(val)
		return &n
	case int64:
		return &val
	case string:
		if strings.TrimSpace(val) == "" {
			return nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			log.Warn().Str("value", val).Msg("cannot parse integer value, dropping")
			return nil
		}
		return &n
	default:
		log.Warn().Interface("value", v).Msg("cannot parse integer value, dropping")
		return nil
	}
}

// DefaultFormats returns the registry with the built-in formats in
// detection order.
func DefaultFormats() ports.FormatRegistry {
	return ports.NewFormatRegistry(NewProcessesFormat())
}
