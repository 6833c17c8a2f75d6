package formatter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tordrt/dbscaffold/internal/annotation"
	"github.com/tordrt/dbscaffold/internal/metadata"
)

func testModel() *metadata.Model {
	fk := &metadata.ForeignKey{
		DependentEntity: "Post", Properties: []string{"BlogId"},
		PrincipalEntity: "Blog", PrincipalProperties: []string{"Id"},
		PrincipalKeyIsPrimary: true, IsRequired: true, DeleteBehavior: metadata.Cascade,
	}
	return &metadata.Model{
		Entities: []*metadata.EntityType{
			{
				Name:        "Blog",
				Annotations: metadata.Annotations{annotation.TableName: "blogs", annotation.Schema: "public"},
				Properties: []*metadata.Property{
					{Name: "Id", ClrType: "int", IsValueType: true, Annotations: metadata.Annotations{annotation.ColumnName: "id", annotation.ColumnType: "integer"}},
					{Name: "Url", ClrType: "string", IsNullable: true, Annotations: metadata.Annotations{annotation.ColumnName: "url", annotation.ColumnType: "text"}},
				},
				PrimaryKey: &metadata.Key{Properties: []string{"Id"}},
				Indexes:    []*metadata.Index{{Name: "ix_blogs_url", Properties: []string{"Url"}, IsUnique: true}},
			},
			{
				Name:        "Post",
				Annotations: metadata.Annotations{annotation.TableName: "posts"},
				Properties: []*metadata.Property{
					{Name: "BlogId", ClrType: "int", IsValueType: true, Annotations: metadata.Annotations{
						annotation.ColumnName: "blog_id", annotation.ColumnType: "integer", annotation.DefaultValueSql: "1",
					}},
				},
				ForeignKeys: []*metadata.ForeignKey{fk},
			},
		},
		Unmapped: []metadata.UnmappedTable{{Table: "public.audit", Reason: "no columns"}},
	}
}

func TestFormatters(t *testing.T) {
	tests := []struct {
		format string
		want   []string
	}{
		{
			format: "text",
			want: []string{
				"ENTITY Blog -> public.blogs (PK: Id)\n",
				"  Id: int [id] integer NOT NULL\n",
				"  Url: string [url] text\n",
				"    ix_blogs_url (Url) UNIQUE\n",
				"ENTITY Post -> posts (KEYLESS)\n",
				"    → Blog (many-to-one) via BlogId\n",
				"SKIPPED:\n  public.audit: no columns\n",
			},
		},
		{
			format: "markdown",
			want: []string{
				"# Scaffolded Model\n",
				"## Blog\n\nTable `public.blogs`\n",
				"- **Id:** int (integer), PK, NOT NULL\n",
				"- **Url:** string (text)\n",
				"- ix_blogs_url on (Url), unique\n",
				"- **BlogId:** int (integer), NOT NULL, DEFAULT 1\n",
				"- BlogId → Blog.Id (many-to-one, on delete Cascade)\n",
				"- **public.audit:** no columns\n",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			f, err := New(tt.format, &buf)
			if err != nil {
				t.Fatalf("New(%q) error = %v", tt.format, err)
			}
			if err := f.Format(testModel()); err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("Format() output missing %q\ngot:\n%s", w, out)
				}
			}
		})
	}
}

func TestNew_InvalidFormat(t *testing.T) {
	if _, err := New("html", &bytes.Buffer{}); err == nil {
		t.Error("New(\"html\") expected error")
	}
}
