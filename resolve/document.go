package resolve

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

var xmlEncoding = regexp.MustCompile(`encoding\s*=\s*("[^"]*"|'[^']*')`)

// isDocument checks name extension against configured document extensions.
func isDocument(name string, exts []string) bool {
	ext := filepath.Ext(name)
	return ext != "" && slices.ContainsFunc(exts, func(e string) bool { return strings.EqualFold(e, ext) })
}

// embeddedStyles returns elements holding CSS text: XHTML <style> and FB2
// <stylesheet>, in document order per element kind.
func embeddedStyles(doc *etree.Document) []*etree.Element {
	var styles []*etree.Element
	for _, path := range []string{"//style", "//stylesheet"} {
		for _, el := range doc.FindElements(path) {
			if strings.EqualFold(el.SelectAttrValue("type", "text/css"), "text/css") {
				styles = append(styles, el)
			}
		}
	}
	return styles
}

func hasCData(el *etree.Element) bool {
	for _, t := range el.Child {
		cd, ok := t.(*etree.CharData)
		if !ok {
			break
		}
		if cd.IsCData() {
			return true
		}
	}
	return false
}

// fixDeclaration marks document as UTF-8 since that is what etree writes.
func fixDeclaration(doc *etree.Document, log *zap.Logger) {
	for _, t := range doc.Child {
		pi, ok := t.(*etree.ProcInst)
		if !ok || pi.Target != "xml" {
			continue
		}
		m := xmlEncoding.FindStringSubmatch(pi.Inst)
		if m != nil && !strings.EqualFold(strings.Trim(m[1], `"'`), "utf-8") {
			log.Debug("Document converted to UTF-8, updating declaration", zap.String("was", m[1]))
			pi.Inst = xmlEncoding.ReplaceAllString(pi.Inst, `encoding="UTF-8"`)
		}
		return
	}
}

// processDocument resolves nesting in every stylesheet embedded into XML
// document and writes the document with resolved stylesheets. Document is
// counted as a single input, in check mode it is unresolved when any of its
// stylesheets is.
func processDocument(ctx context.Context, r io.Reader, src source, dst string, log *zap.Logger) (rerr error) {
	j := startJob(ctx, &src, log)
	defer j.done(&rerr)

	doc := etree.NewDocument()
	doc.WriteSettings = etree.WriteSettings{
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Permissive:    true,
		PreserveCData: true,
	}
	if _, err := doc.ReadFrom(r); err != nil {
		return fmt.Errorf("unable to read document (%s): %w", src.rel, err)
	}

	styles := embeddedStyles(doc)
	log.Debug("Embedded stylesheets found", zap.String("document", src.rel), zap.Int("count", len(styles)))

	flat := true
	for i, el := range styles {
		name := fmt.Sprintf("%s#%d", src.rel, i+1)
		out, ok, err := resolveText(j.env, []byte(el.Text()), name, fmt.Sprintf("%s-%d", j.refID, i+1), false, log)
		if err != nil {
			return fmt.Errorf("stylesheet %d: %w", i+1, err)
		}
		flat = flat && ok
		if j.env.Check {
			continue
		}
		text := "\n" + string(out)
		if hasCData(el) {
			el.SetCData(text)
		} else {
			el.SetText(text)
		}
	}
	if j.env.Check {
		j.report(src.rel, flat)
		return nil
	}

	fixDeclaration(doc, log)

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return fmt.Errorf("unable to render document: %w", err)
	}
	return j.write(buf.Bytes(), src, dst)
}
