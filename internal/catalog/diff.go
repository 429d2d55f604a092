// Package catalog implements the Catalog Commit Pipeline (spec §4.9, C9):
// clearing and repopulating the catalog worktree's manifests/, computing a
// migration-aware diff against the worktree's current revision, generating
// a commit message from compile metadata, and pushing under the refusal
// rules spec §4.9 describes.
//
// The dyff-based diff is grounded on the teacher's
// internal/kubernetes/diff.go (ytbx.LoadYAMLDocuments + dyff.CompareInputFiles
// + dyff.HumanReport). The migration-aware noise suppression registry is
// grounded on the original Python Commodore's catalog.py
// (_is_semantic_diff_kapitan_029_030 / _kapitan_029_030_difffunc): sorting
// each side's YAML objects before diffing and classifying line-pairs as
// pure formatting noise.
package catalog

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gonvenience/ytbx"
	"github.com/homeport/dyff/pkg/dyff"
	"gopkg.in/yaml.v3"

	"github.com/projectsyn/commodore/internal/commodoreerrors"
)

// Migration selects a migration-aware noise suppression profile (spec
// §4.9, §9).
type Migration string

const (
	// MigrationNone applies no noise suppression; every textual change is
	// material.
	MigrationNone Migration = ""
	// MigrationKapitan029To030 suppresses known-noisy changes from the
	// Kapitan 0.29->0.30 upgrade (null-object stream separators, the
	// Tiller->Helm managed-by label rename) after sorting each document by
	// its Kubernetes object identity.
	MigrationKapitan029To030 Migration = "kapitan-0.29-to-0.30"
	// MigrationIgnoreYAMLFormatting suppresses purely cosmetic YAML
	// differences (key/list re-ordering, flow-style, quoting, indentation)
	// that dyff already treats as non-semantic once parsed.
	MigrationIgnoreYAMLFormatting Migration = "ignore-yaml-formatting"
)

// Diff is the rendered, possibly migration-filtered diff between the
// catalog worktree's previous manifests/ content and the newly rendered
// content, plus whether it represents a material change.
type Diff struct {
	Text    string
	Changed bool
}

// Compute diffs beforeYAML (the previous manifests/<path> content, or empty
// for a new file) against afterYAML using dyff, then applies the selected
// migration-aware noise suppression to decide whether the result is a
// material change.
func Compute(path string, beforeYAML, afterYAML []byte, migration Migration) (Diff, error) {
	if bytes.Equal(bytes.TrimSpace(beforeYAML), bytes.TrimSpace(afterYAML)) {
		return Diff{}, nil
	}
	switch {
	case len(bytes.TrimSpace(beforeYAML)) == 0:
		return Diff{Text: "added file", Changed: true}, nil
	case len(bytes.TrimSpace(afterYAML)) == 0:
		return Diff{Text: "removed file", Changed: true}, nil
	}

	text, err := dyffReport(path, beforeYAML, afterYAML)
	if err != nil {
		return Diff{}, err
	}
	if text == "" {
		return Diff{}, nil
	}

	switch migration {
	case MigrationKapitan029To030:
		if !kapitan029To030IsSemantic(beforeYAML, afterYAML) {
			return Diff{Text: text, Changed: false}, nil
		}
	case MigrationIgnoreYAMLFormatting:
		// dyff already parses both sides into structured documents before
		// comparing, so key order, flow style, and quoting differences
		// never produce a report entry in the first place; a non-empty
		// dyff report at this point is inherently semantic.
	}

	return Diff{Text: text, Changed: true}, nil
}

func dyffReport(path string, before, after []byte) (string, error) {
	beforeInput, err := parseYAMLInput(path+" (old)", before)
	if err != nil {
		return "", commodoreerrors.Wrap(commodoreerrors.ErrRender, "parsing previous manifest for diff", err)
	}
	afterInput, err := parseYAMLInput(path+" (new)", after)
	if err != nil {
		return "", commodoreerrors.Wrap(commodoreerrors.ErrRender, "parsing rendered manifest for diff", err)
	}

	report, err := dyff.CompareInputFiles(beforeInput, afterInput)
	if err != nil {
		return "", commodoreerrors.Wrap(commodoreerrors.ErrRender, "comparing manifests", err)
	}
	if len(report.Diffs) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	writer := &dyff.HumanReport{
		Report:            report,
		DoNotInspectCerts: true,
		NoTableStyle:      true,
		OmitHeader:        true,
	}
	if err := writer.WriteReport(io.Writer(&buf)); err != nil {
		return "", commodoreerrors.Wrap(commodoreerrors.ErrRender, "rendering diff report", err)
	}

	lines := strings.Split(buf.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

func parseYAMLInput(name string, data []byte) (ytbx.InputFile, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ytbx.InputFile{Location: name}, nil
	}
	docs, err := ytbx.LoadYAMLDocuments(data)
	if err != nil {
		return ytbx.InputFile{}, err
	}
	return ytbx.InputFile{Location: name, Documents: docs}, nil
}

// k8sObjectKey mirrors the original Python K8sObject sort key: apiVersion,
// kind, namespace, name, in that order, so that unrelated documents within
// a multi-doc manifest line up for comparison regardless of the renderer's
// emission order.
func k8sObjectKey(doc map[string]interface{}) string {
	get := func(k string) string {
		s, _ := doc[k].(string)
		return s
	}
	namespace := ""
	if meta, ok := doc["metadata"].(map[string]interface{}); ok {
		namespace, _ = meta["namespace"].(string)
	}
	name := ""
	if meta, ok := doc["metadata"].(map[string]interface{}); ok {
		name, _ = meta["name"].(string)
	}
	return fmt.Sprintf("%s\x00%s\x00%s\x00%s", get("apiVersion"), get("kind"), namespace, name)
}

// kapitan029To030IsSemantic reports whether the change between before and
// after survives the 0.29->0.30 noise filter: both sides are decoded as
// multi-document YAML, sorted by Kubernetes object identity, and diffed
// line-by-line; a change is material unless every differing line pair is
// one of the known-noisy patterns.
func kapitan029To030IsSemantic(before, after []byte) bool {
	beforeLines, okB := sortedObjectLines(before)
	afterLines, okA := sortedObjectLines(after)
	if !okB || !okA {
		// Either side failed to parse as YAML; fall back to treating the
		// change as material rather than risk hiding a real difference.
		return true
	}

	for _, win := range slidingPairs(unifiedLines(beforeLines, afterLines)) {
		if isSemanticKapitanChange(win[0], win[1]) {
			return true
		}
	}
	return false
}

func sortedObjectLines(data []byte) ([]string, bool) {
	var docs []map[string]interface{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc map[string]interface{}
		if err := dec.Decode(&doc); err != nil {
			if err == io.EOF {
				break
			}
			return nil, false
		}
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool {
		return k8sObjectKey(docs[i]) < k8sObjectKey(docs[j])
	})

	var lines []string
	for _, d := range docs {
		out, err := yaml.Marshal(d)
		if err != nil {
			return nil, false
		}
		lines = append(lines, strings.Split(strings.TrimRight(string(out), "\n"), "\n")...)
		lines = append(lines, "----")
	}
	return lines, true
}

// unifiedLines produces a naive line-level diff (sufficient for the noise
// classifier, which only inspects consecutive +/- pairs): unchanged
// prefix/suffix lines are emitted as context (" " prefix), and the
// remaining differing block is emitted as removed ("-") then added ("+")
// lines.
func unifiedLines(before, after []string) []string {
	i, j := 0, 0
	for i < len(before) && i < len(after) && before[i] == after[i] {
		i++
	}
	j = i
	trimB, trimA := len(before), len(after)
	for trimB > i && trimA > j && before[trimB-1] == after[trimA-1] {
		trimB--
		trimA--
	}

	var out []string
	for k := 0; k < i; k++ {
		out = append(out, " "+before[k])
	}
	for k := i; k < trimB; k++ {
		out = append(out, "-"+before[k])
	}
	for k := j; k < trimA; k++ {
		out = append(out, "+"+after[k])
	}
	for k := trimB; k < len(before); k++ {
		out = append(out, " "+before[k])
	}
	return out
}

func slidingPairs(lines []string) [][2]string {
	if len(lines) < 2 {
		return nil
	}
	pairs := make([][2]string, 0, len(lines)-1)
	for i := 0; i+1 < len(lines); i++ {
		pairs = append(pairs, [2]string{lines[i], lines[i+1]})
	}
	return pairs
}

// isSemanticKapitanChange mirrors _is_semantic_diff_kapitan_029_030: a
// line pair is non-semantic noise only if it matches one of the known
// 0.29->0.30 patterns; context lines and hunk headers never count as
// semantic on their own.
func isSemanticKapitanChange(a, b string) bool {
	lineA := strings.TrimRight(a, " \t")
	lineB := strings.TrimRight(b, " \t")

	if strings.HasPrefix(a, " ") || strings.HasPrefix(b, " ") ||
		strings.HasPrefix(lineA, "@@") || strings.HasPrefix(lineB, "@@") {
		return false
	}

	if lineA == "-null" && (lineB == "----" || lineB == "---- null") {
		return false
	}
	if lineA == "---- null" && (lineB == "----" || lineB == "---- null") {
		return false
	}

	if strings.HasPrefix(lineA, "-") && strings.HasPrefix(lineB, "+") {
		if strings.HasSuffix(lineA, "app.kubernetes.io/managed-by: Tiller") &&
			strings.HasSuffix(lineB, "app.kubernetes.io/managed-by: Helm") {
			return false
		}
		if strings.HasSuffix(lineA, "heritage: Tiller") && strings.HasSuffix(lineB, "heritage: Helm") {
			return false
		}
	}

	return true
}
