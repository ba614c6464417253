package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed config.schema.json
var schemaJSON string

var compiledSchema = jsonschema.MustCompileString("config.schema.json", schemaJSON)

// Validate checks a configuration against the embedded JSON schema. The
// struct is round-tripped through JSON so the schema sees the same field
// names the YAML file uses.
func Validate(cfg *Config) error {
	data, err := json.Marshal(toDocument(cfg))
	if err != nil {
		return fmt.Errorf("failed to encode config for validation: %w", err)
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode config for validation: %w", err)
	}

	if err := compiledSchema.Validate(doc); err != nil {
		return err
	}
	return nil
}

// toDocument maps the config to the schema's snake_case field names.
func toDocument(cfg *Config) map[string]any {
	return map[string]any{
		"platform": map[string]any{
			"base_url":               cfg.Platform.BaseURL,
			"timeout_seconds":        cfg.Platform.TimeoutSeconds,
			"poll_interval_seconds":  cfg.Platform.PollIntervalSeconds,
			"poll_timeout_minutes":   cfg.Platform.PollTimeoutMinutes,
			"download_attempts":      cfg.Platform.DownloadAttempts,
			"download_delay_seconds": cfg.Platform.DownloadDelaySeconds,
		},
		"selection": map[string]any{
			"drop_collections":  intsOrEmpty(cfg.Selection.DropCollections),
			"drop_page_numbers": intsOrEmpty(cfg.Selection.DropPageNumbers),
			"drop_statuses":     stringsOrEmpty(cfg.Selection.DropStatuses),
			"drop_following":    cfg.Selection.DropFollowing,
		},
		"region_model": map[string]any{
			"model_id": cfg.RegionModel.ModelID,
			"min_area": cfg.RegionModel.MinArea,
		},
		"line_model": map[string]any{
			"model_id": cfg.LineModel.ModelID,
			"params":   mapOrEmpty(cfg.LineModel.Params),
		},
		"recognition": map[string]any{
			"model_id":   cfg.Recognition.ModelID,
			"batch_size": cfg.Recognition.BatchSize,
		},
		"validation": map[string]any{
			"reference":      cfg.Validation.Reference,
			"hist_bin_width": cfg.Validation.HistBinWidth,
		},
	}
}

// Nil slices and maps marshal to JSON null, which the schema's array
// and object types reject. Unset means empty here.

func intsOrEmpty(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

func stringsOrEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func mapOrEmpty(v map[string]string) map[string]string {
	if v == nil {
		return map[string]string{}
	}
	return v
}
