package resolve

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"cssnest/config"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context string
	// source file name without extension
	Name string
	// source file extension including dot
	Ext string
	// directory of the source relative to the processed root, "." if none
	Dir string
	// base name of the archive stylesheet came from, empty for plain files
	Archive string
	// sequential number of the stylesheet in this run, starting with 1
	Index int
	RunID string
}

func newValues(name config.TemplateFieldName, src, archive string, index int, runID string) Values {
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	return Values{
		Context: string(name),
		Name:    strings.TrimSuffix(base, ext),
		Ext:     ext,
		Dir:     filepath.ToSlash(filepath.Dir(src)),
		Archive: archive,
		Index:   index,
		RunID:   runID,
	}
}

func expandTemplate(name config.TemplateFieldName, field string, values Values) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
