package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"
	"time"

	validator "github.com/go-playground/validator/v10"
	sprig "github.com/go-task/slim-sprig/v3"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"cssnest/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	InputConfig struct {
		Extensions []string `yaml:"extensions" validate:"min=1,dive,required,startswith=."`
		Documents  []string `yaml:"documents" validate:"dive,required,startswith=."`
		CodePage   string   `yaml:"code_page"`
	}

	OutputConfig struct {
		Style                 common.OutputStyle `yaml:"style"`
		LineEnding            common.LineEnding  `yaml:"line_ending"`
		Indent                int                `yaml:"indent" validate:"min=0,max=8"`
		KeepComments          bool               `yaml:"keep_comments"`
		Extension             string             `yaml:"extension" validate:"required,startswith=."`
		OutputNameTemplate    string             `yaml:"output_name_template"`
		FileNameTransliterate bool               `yaml:"file_name_transliterate"`
		Existing              ExistingOutput     `yaml:"existing"`
	}

	WatchConfig struct {
		Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Input     InputConfig    `yaml:"input"`
		Output    OutputConfig   `yaml:"output"`
		Watch     WatchConfig    `yaml:"watch"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

// checkConfig validates what field tags cannot express.
func checkConfig(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)

	if !cfg.Output.Style.IsValid() {
		sl.ReportError(cfg.Output.Style, "style", "Style", "enum", cfg.Output.Style.String())
	}
	if !cfg.Output.LineEnding.IsValid() {
		sl.ReportError(cfg.Output.LineEnding, "line_ending", "LineEnding", "enum", cfg.Output.LineEnding.String())
	}
	if !cfg.Output.Existing.IsValid() {
		sl.ReportError(cfg.Output.Existing, "existing", "Existing", "enum", cfg.Output.Existing.String())
	}
	if tmpl := cfg.Output.OutputNameTemplate; len(tmpl) > 0 {
		if _, err := template.New(string(OutputNameTemplateFieldName)).Funcs(sprig.FuncMap()).Parse(tmpl); err != nil {
			sl.ReportError(tmpl, string(OutputNameTemplateFieldName), "OutputNameTemplate", "template", err.Error())
		}
	}
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg, gencfg.WithAdditionalChecks(checkConfig)); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to
// provide sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
