package arch_test

import (
	"go/ast"
	"go/token"
	"path/filepath"
	"strings"
	"testing"
)

// TestExportedSymbolsHaveGoDoc requires a doc comment starting with the
// symbol name on every exported declaration. Members of a documented
// const or var group, and members with a trailing comment, pass.
func TestExportedSymbolsHaveGoDoc(t *testing.T) {
	t.Parallel()

	for _, p := range loadPackages(t) {
		t.Run(p.name, func(t *testing.T) {
			t.Parallel()
			for path, f := range p.files {
				for _, decl := range f.Decls {
					for _, miss := range undocumented(decl) {
						pos := p.fset.Position(miss.Pos())
						t.Errorf("%s:%d: exported %s has no GoDoc comment",
							filepath.Join(p.name, filepath.Base(path)), pos.Line, miss.Name)
					}
				}
			}
		})
	}
}

func undocumented(decl ast.Decl) []*ast.Ident {
	var miss []*ast.Ident
	switch d := decl.(type) {
	case *ast.FuncDecl:
		if !d.Name.IsExported() || (d.Recv != nil && !exportedRecv(d.Recv.List[0].Type)) {
			return nil
		}
		if !docStartsWith(d.Doc, d.Name.Name) {
			miss = append(miss, d.Name)
		}
	case *ast.GenDecl:
		grouped := d.Lparen.IsValid()
		for _, spec := range d.Specs {
			switch s := spec.(type) {
			case *ast.TypeSpec:
				if s.Name.IsExported() && !docStartsWith(s.Doc, s.Name.Name) &&
					!(!grouped && docStartsWith(d.Doc, s.Name.Name)) {
					miss = append(miss, s.Name)
				}
			case *ast.ValueSpec:
				for _, name := range s.Names {
					if !name.IsExported() || docStartsWith(s.Doc, name.Name) {
						continue
					}
					if grouped && (hasText(d.Doc) || hasText(s.Comment) || hasText(s.Doc)) {
						continue
					}
					if !grouped && docStartsWith(d.Doc, name.Name) {
						continue
					}
					miss = append(miss, name)
				}
			}
		}
	}
	return miss
}

func exportedRecv(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.StarExpr:
		return exportedRecv(e.X)
	case *ast.IndexExpr:
		return exportedRecv(e.X)
	case *ast.IndexListExpr:
		return exportedRecv(e.X)
	case *ast.Ident:
		return token.IsExported(e.Name)
	}
	return false
}

func docStartsWith(g *ast.CommentGroup, name string) bool {
	return g != nil && strings.HasPrefix(strings.TrimSpace(g.Text()), name)
}

func hasText(g *ast.CommentGroup) bool {
	return g != nil && strings.TrimSpace(g.Text()) != ""
}
