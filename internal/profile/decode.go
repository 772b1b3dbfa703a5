package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DecodeJobs converts loosely typed job definitions (viper sections, parsed
// JSON or YAML) into jobs. Numbers given as strings are accepted and
// comma-separated requirement strings are split into lists. Every decoded job
// is validated.
func DecodeJobs(raw any) ([]Job, error) {
	var jobs []Job

	cfg := &mapstructure.DecoderConfig{
		Result:           &jobs,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	}

	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, fmt.Errorf("create jobs decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}

	for i := range jobs {
		jobs[i].MustHave = trimAll(jobs[i].MustHave)
		jobs[i].NiceToHave = trimAll(jobs[i].NiceToHave)
		if err := jobs[i].Validate(); err != nil {
			return nil, err
		}
	}

	return jobs, nil
}

// LoadJobsFile reads a JSON or YAML file holding a list of jobs.
func LoadJobsFile(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read jobs file %q: %w", path, err)
	}

	var raw any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parse jobs file %q: %w", path, err)
	}

	return DecodeJobs(raw)
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
