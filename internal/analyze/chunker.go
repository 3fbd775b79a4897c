// Package analyze turns source files into graph entities. The chunker walks
// a file's syntax tree and yields labeled text ranges; the analyzer maps
// those onto file/construct nodes and contains edges.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	tsx "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// MaxFileSize is the largest source file the chunker will parse (10MB).
const MaxFileSize = 10 * 1024 * 1024

// ErrFileTooLarge is returned when input content exceeds MaxFileSize.
var ErrFileTooLarge = errors.New("file exceeds maximum size limit")

// Chunk is one labeled text range produced from a source file.
type Chunk struct {
	Type      string `json:"type"`
	Name      string `json:"name,omitempty"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Content   string `json:"content"`
}

// Chunker turns a source file into candidate entity chunks.
type Chunker interface {
	Supports(path string) bool
	Chunk(ctx context.Context, path string, src []byte) ([]Chunk, error)
}

// languageSpec maps a grammar's node types onto chunk types.
type languageSpec struct {
	language *sitter.Language
	topLevel map[string]string // declaration node type -> chunk type
	nested   map[string]string // node type inside a class body -> chunk type
	classes  map[string]bool   // node types whose bodies are descended into
}

var languages = map[string]languageSpec{
	".go": {
		language: golang.GetLanguage(),
		topLevel: map[string]string{
			"function_declaration": "function",
			"method_declaration":   "method",
			"type_declaration":     "type",
		},
	},
	".js":  javascriptSpec(),
	".jsx": javascriptSpec(),
	".ts":  typescriptSpec(),
	".tsx": typescriptSpec(),
	".py": {
		language: python.GetLanguage(),
		topLevel: map[string]string{
			"function_definition": "function",
			"class_definition":    "class",
		},
		nested:  map[string]string{"function_definition": "method"},
		classes: map[string]bool{"class_definition": true},
	},
}

func typescriptSpec() languageSpec {
	return languageSpec{
		language: tsx.GetLanguage(),
		topLevel: map[string]string{
			"function_declaration":  "function",
			"class_declaration":     "class",
			"interface_declaration": "interface",
		},
		nested:  map[string]string{"method_definition": "method"},
		classes: map[string]bool{"class_declaration": true},
	}
}

func javascriptSpec() languageSpec {
	return languageSpec{
		language: javascript.GetLanguage(),
		topLevel: map[string]string{
			"function_declaration": "function",
			"class_declaration":    "class",
		},
		nested:  map[string]string{"method_definition": "method"},
		classes: map[string]bool{"class_declaration": true},
	}
}

// TreeSitterChunker chunks Go, JavaScript, TypeScript and Python sources by
// walking their tree-sitter parse trees.
type TreeSitterChunker struct{}

// NewTreeSitterChunker returns a chunker for every supported language.
func NewTreeSitterChunker() *TreeSitterChunker {
	return &TreeSitterChunker{}
}

// Supports reports whether path's extension maps to a known grammar.
func (c *TreeSitterChunker) Supports(path string) bool {
	_, ok := languages[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Chunk parses src and returns one chunk per top-level declaration, plus
// one per method nested in a class body.
func (c *TreeSitterChunker) Chunk(ctx context.Context, path string, src []byte) ([]Chunk, error) {
	spec, ok := languages[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}
	if int64(len(src)) > MaxFileSize {
		return nil, fmt.Errorf("%s: %w", path, ErrFileTooLarge)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(spec.language)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	var chunks []Chunk
	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		decl := root.NamedChild(i)
		// Python wraps nothing, but JS/TS export statements wrap the
		// declaration one level down.
		if decl.Type() == "export_statement" && decl.NamedChildCount() > 0 {
			decl = decl.NamedChild(0)
		}
		chunkType, ok := spec.topLevel[decl.Type()]
		if !ok {
			continue
		}
		chunks = append(chunks, makeChunk(decl, src, chunkType, declName(decl, src)))
		if spec.classes[decl.Type()] {
			chunks = append(chunks, classMembers(decl, src, spec)...)
		}
	}
	return chunks, nil
}

// classMembers collects nested declarations (methods) from a class body.
func classMembers(class *sitter.Node, src []byte, spec languageSpec) []Chunk {
	body := class.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var chunks []Chunk
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		chunkType, ok := spec.nested[member.Type()]
		if !ok {
			continue
		}
		name := declName(member, src)
		if owner := declName(class, src); owner != "" && name != "" {
			name = owner + "." + name
		}
		chunks = append(chunks, makeChunk(member, src, chunkType, name))
	}
	return chunks
}

func makeChunk(n *sitter.Node, src []byte, chunkType, name string) Chunk {
	return Chunk{
		Type:      chunkType,
		Name:      name,
		StartLine: int(n.StartPoint().Row) + 1,
		EndLine:   int(n.EndPoint().Row) + 1,
		Content:   n.Content(src),
	}
}

// declName extracts a declaration's identifier. Go type declarations carry
// the name on the inner type_spec rather than the declaration node.
func declName(n *sitter.Node, src []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return name.Content(src)
	}
	if n.Type() == "type_declaration" {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "type_spec" {
				if name := child.ChildByFieldName("name"); name != nil {
					return name.Content(src)
				}
			}
		}
	}
	return ""
}
