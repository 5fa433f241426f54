// Package resolve drives nesting resolution over files, directories and
// archives.
package resolve

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"cssnest/archive"
	"cssnest/ast"
	"cssnest/config"
	"cssnest/css"
	"cssnest/cssize"
	"cssnest/state"
)

// stylesheets larger than that are refused
const maxStylesheetSize = 64 << 20

// stdout is where results go when requested, replaced in tests.
var stdout io.Writer = os.Stdout

var errOutputExists = errors.New("output file already exists")

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, dst, err := prepare(ctx, cmd)
	if err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("resolve")

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Stringer("run", env.RunID))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)),
			zap.Int("processed", env.Stats.Processed), zap.Int("skipped", env.Stats.Skipped), zap.Int("failed", env.Stats.Failed))
	}(time.Now())

	if err := process(ctx, src, dst, log); err != nil {
		return err
	}
	if env.Check && env.Stats.Unresolved > 0 {
		return fmt.Errorf("%d of %d stylesheet(s) have nesting to resolve", env.Stats.Unresolved, env.Stats.Total())
	}
	return nil
}

// prepare interprets command line shared by resolve and watch and fills
// environment accordingly.
func prepare(ctx context.Context, cmd *cli.Command) (src, dst string, err error) {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("resolve")

	src = cmd.Args().Get(0)
	if len(src) == 0 {
		return "", "", errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return "", "", err
	}

	dst = cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return "", "", fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return "", "", err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")
	env.ToStdout, env.Check = cmd.Bool("stdout"), cmd.Bool("check")

	cp := cmd.String("input-cp")
	if len(cp) == 0 {
		cp = env.Cfg.Input.CodePage
	}
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil || env.CodePage == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Using code page for stylesheets without BOM or @charset and non UTF-8 names in archives", zap.String("charset", n))
		}
	}
	return src, dst, nil
}

// process handles the core logic independently of CLI framework. It
// determines the input type (directory, archive, or single file) and processes
// accordingly.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, filepath.ToSlash(tail), "", dst, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		if len(tail) != 0 {
			return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}
		ok, err := processFile(ctx, head, filepath.Base(head), dst, log)
		if err != nil {
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if !ok {
			return fmt.Errorf("input was not recognized as stylesheet (%s)", head)
		}
		break
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processFile processes single stylesheet or document on disk. Returns false
// when path is neither. Processing errors are logged, not returned.
func processFile(ctx context.Context, path, rel, dst string, log *zap.Logger) (bool, error) {
	env := state.EnvFromContext(ctx)

	ok, enc, err := isStylesheetFile(path, env.Cfg.Input.Extensions)
	if err != nil {
		return false, err
	}
	document := !ok && isDocument(path, env.Cfg.Input.Documents)
	if !ok && !document {
		return false, nil
	}

	file, err := os.Open(path)
	if err != nil {
		log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		env.Stats.Failed++
		return true, nil
	}
	defer file.Close()

	if fi, err := file.Stat(); err == nil && fi.Size() > maxStylesheetSize {
		log.Error("Unable to process file, too large", zap.String("file", path), zap.Int64("size", fi.Size()))
		env.Stats.Failed++
		return true, nil
	}

	if document {
		err = processDocument(ctx, file, source{rel: rel, ext: filepath.Ext(path), path: path}, dst, log)
	} else {
		err = processStylesheet(ctx, file, enc, source{rel: rel, path: path}, dst, log)
	}
	if err != nil {
		log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
	}
	return true, nil
}

// listDir returns regular files under dir in natural order. Symbolic links
// are not followed.
func listDir(ctx context.Context, dir string, log *zap.Logger) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	slices.SortFunc(files, func(a, b string) int {
		switch {
		case natural.Less(a, b):
			return -1
		case natural.Less(b, a):
			return 1
		}
		return 0
	})
	return files, err
}

// processDir walks directory tree finding stylesheets and archives and
// processes them.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	files, err := listDir(ctx, dir, log)
	if err != nil {
		return err
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		isArchive, err := isArchiveFile(path)
		if err != nil {
			// checking format - but cannot open target file
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if isArchive {
			if err := processArchive(ctx, path, "", filepath.Dir(rel), dst, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			continue
		}

		ok, err := processFile(ctx, path, rel, dst, log)
		switch {
		case err != nil:
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
		case !ok:
			log.Debug("Skipping file, not recognized as stylesheet or archive", zap.String("file", path))
		default:
			count++
		}
	}
	return nil
}

// processArchive walks all files inside archive, finds stylesheets and
// documents under "pathIn" and processes them.
func processArchive(ctx context.Context, arcPath, pathIn, pathOut, dst string, log *zap.Logger) (err error) {
	env := state.EnvFromContext(ctx)

	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", arcPath))
		}
	}()

	filter := archive.Filter{Prefix: pathIn, Extensions: slices.Concat(env.Cfg.Input.Extensions, env.Cfg.Input.Documents)}
	err = archive.Walk(arcPath, filter, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := archive.ReadFile(f, maxStylesheetSize)
		if err != nil {
			log.Warn("Skipping file in archive",
				zap.String("archive", arc), zap.String("path", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		ok, enc := isStylesheet(f.FileHeader.Name, data[:min(len(data), headerSize)], env.Cfg.Input.Extensions)
		document := !ok && isDocument(f.FileHeader.Name, env.Cfg.Input.Documents)
		if !ok && !document {
			log.Debug("Skipping file, not recognized as stylesheet", zap.String("archive", arc), zap.String("file", f.FileHeader.Name))
			return nil
		}

		count++

		cp := env.CodePage

		pathInArchive := f.FileHeader.Name
		if cp != nil && f.FileHeader.NonUTF8 {
			// forcing zip file name encoding
			if n, err := cp.NewDecoder().String(pathInArchive); err == nil {
				pathInArchive = n
			} else {
				n, _ = ianaindex.IANA.Name(cp)
				log.Warn("Unable to convert archive name from specified encoding",
					zap.String("charset", n), zap.String("path", pathInArchive), zap.Error(err))
			}
		}
		src := source{rel: filepath.Join(pathOut, filepath.FromSlash(pathInArchive)), archive: filepath.Base(arc)}
		if document {
			src.ext = path.Ext(f.FileHeader.Name)
			err = processDocument(ctx, bytes.NewReader(data), src, dst, log)
		} else {
			err = processStylesheet(ctx, bytes.NewReader(data), enc, src, dst, log)
		}
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
		}
		return nil
	})
	return err
}

// processStylesheet processes single stylesheet. "src.rel" is part of the
// source path (always including file name) relative to the original path.
// When actual file was specified it will be just base file name without a
// path. When looking inside archive or directory it will be relative path
// inside archive or directory (including base file name). "dst" is the
// destination directory where the result should be written.
func processStylesheet(ctx context.Context, r io.Reader, enc srcEncoding, src source, dst string, log *zap.Logger) (rerr error) {
	j := startJob(ctx, &src, log)
	defer j.done(&rerr)

	data, encName, err := decodeStylesheet(r, enc, j.env.CodePage)
	if err != nil {
		return fmt.Errorf("unable to read stylesheet (%s): %w", src.rel, err)
	}
	log.Debug("Stylesheet decoded", zap.String("encoding", encName), zap.Int("bytes", len(data)))

	out, flat, err := resolveText(j.env, data, src.rel, j.refID, encName != "utf-8", log)
	if err != nil {
		return err
	}
	if j.env.Check {
		j.report(src.rel, flat)
		return nil
	}
	return j.write(out, src, dst)
}

// resolveText parses stylesheet text, resolves nesting and renders result
// according to configuration. In check mode only postcondition is verified
// and nothing is rendered. "converted" is set when text was converted to
// UTF-8 from another encoding.
func resolveText(env *state.LocalEnv, data []byte, name, refID string, converted bool, log *zap.Logger) (out []byte, flat bool, err error) {
	sheet, err := css.NewParser(log).Parse(data, name)
	if err != nil {
		return nil, false, fmt.Errorf("unable to parse stylesheet: %w", err)
	}
	for _, w := range sheet.Warnings {
		log.Warn("Suspicious stylesheet content", zap.String("warning", w))
	}
	if env.Rpt != nil {
		env.Rpt.StoreData(fmt.Sprintf("trees/%s-input.txt", refID), []byte(ast.Dump(sheet.Root)))
	}

	if env.Check {
		if err := cssize.Verify(sheet.Root); err != nil {
			errs := multierr.Errors(err)
			log.Warn("Stylesheet has nesting to resolve", zap.String("file", name), zap.Int("problems", len(errs)), zap.Error(errs[0]))
			return nil, false, nil
		}
		return nil, true, nil
	}

	root, err := cssize.New(log, cssize.WithCanonicalText(css.CanonicalText)).Rewrite(sheet.Root)
	if err != nil {
		return nil, false, fmt.Errorf("unable to resolve nesting: %w", err)
	}
	if converted {
		fixCharset(root, log)
	}
	sheet.Root = root
	sheet.Format = formatFromConfig(&env.Cfg.Output)
	if env.Rpt != nil {
		env.Rpt.StoreData(fmt.Sprintf("trees/%s-output.txt", refID), []byte(ast.Dump(root)))
	}

	var buf bytes.Buffer
	if _, err := sheet.WriteTo(&buf); err != nil {
		return nil, false, fmt.Errorf("unable to render stylesheet: %w", err)
	}
	return buf.Bytes(), true, nil
}

// job tracks processing of a single input for logs and statistics.
type job struct {
	env     *state.LocalEnv
	log     *zap.Logger
	refID   string
	output  string
	skipped bool
	start   time.Time
}

func startJob(ctx context.Context, src *source, log *zap.Logger) *job {
	env := state.EnvFromContext(ctx)

	src.index = env.Stats.Total() + 1

	refID := src.rel
	if id, err := uuid.NewV7(); err == nil {
		refID = id.String()
	}
	log.Info("Processing starting", zap.String("from", src.rel), zap.String("ref_id", refID))

	if env.Rpt != nil && src.path != "" {
		if err := env.Rpt.StoreCopy(fmt.Sprintf("source-%s%s", refID, filepath.Ext(src.path)), src.path); err != nil {
			log.Warn("Unable to copy source into report", zap.String("file", src.path), zap.Error(err))
		}
	}
	return &job{env: env, log: log, refID: refID, start: time.Now()}
}

// done updates statistics, it has to be deferred directly so panics could be
// recovered.
func (j *job) done(rerr *error) {
	if r := recover(); r != nil {
		j.log.Error("Processing ended with panic",
			zap.Any("panic", r), zap.Duration("elapsed", time.Since(j.start)), zap.String("to", j.output), zap.ByteString("stack", debug.Stack()))
		*rerr = fmt.Errorf("processing panic: %v", r)
	}
	switch {
	case *rerr != nil:
		j.env.Stats.Failed++
	case j.skipped:
		j.env.Stats.Skipped++
	default:
		j.env.Stats.Processed++
		j.log.Info("Processing completed", zap.Duration("elapsed", time.Since(j.start)), zap.String("to", j.output), zap.String("ref_id", j.refID))
	}
}

// report records check mode result.
func (j *job) report(name string, flat bool) {
	if flat {
		j.log.Info("Stylesheet is flat", zap.String("file", name))
		return
	}
	j.env.Stats.Unresolved++
}

// write stores result either to stdout or to the output file derived from
// source.
func (j *job) write(out []byte, src source, dst string) (err error) {
	if j.env.ToStdout {
		j.output = "STDOUT"
		if _, err := stdout.Write(out); err != nil {
			return fmt.Errorf("unable to write output: %w", err)
		}
		return nil
	}

	// Determine output file name and path based on input and configuration.
	j.output = buildOutputPath(src, dst, j.env)

	if j.skipped, err = checkDestination(j.output, j.env, j.log); err != nil || j.skipped {
		return err
	}
	if err := os.WriteFile(j.output, out, 0644); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}

	if j.env.OnOutput != nil {
		j.env.OnOutput(j.output)
	}

	// Store result for debugging
	if j.env.Rpt != nil {
		j.env.Rpt.Store(fmt.Sprintf("result-%s%s", j.refID, filepath.Ext(j.output)), j.output)
	}
	return nil
}

// checkDestination decides what to do with existing output file. It returns
// true when stylesheet should be skipped.
func checkDestination(outputName string, env *state.LocalEnv, log *zap.Logger) (bool, error) {
	_, err := os.Stat(outputName)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
			return false, fmt.Errorf("unable to create output directory: %w", err)
		}
		return false, nil
	case err != nil:
		return false, err
	}

	mode := env.Cfg.Output.Existing
	if env.Overwrite {
		mode = config.ExistingOutputOverwrite
	}
	switch mode {
	case config.ExistingOutputSkip:
		log.Info("Output exists, skipping", zap.String("file", outputName))
		return true, nil
	case config.ExistingOutputOverwrite:
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s", errOutputExists, outputName)
	}
}

// fixCharset updates top level @charset after stylesheet was converted to
// UTF-8.
func fixCharset(root *ast.Block, log *zap.Logger) {
	for _, s := range root.Children {
		if a, ok := s.(*ast.AtRule); ok && strings.EqualFold(a.Name, "charset") {
			log.Debug("Stylesheet converted to UTF-8, updating @charset", zap.String("was", a.Params))
			a.Params = `"UTF-8"`
		}
	}
}

func formatFromConfig(cfg *config.OutputConfig) css.Format {
	return css.Format{
		Style:        cfg.Style,
		Indent:       cfg.Indent,
		LineEnding:   cfg.LineEnding,
		KeepComments: cfg.KeepComments,
	}
}
