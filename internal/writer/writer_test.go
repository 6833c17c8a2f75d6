package writer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/dbscaffold/internal/annotation"
	"github.com/tordrt/dbscaffold/internal/codegen"
	"github.com/tordrt/dbscaffold/internal/conventions"
	"github.com/tordrt/dbscaffold/internal/db"
	"github.com/tordrt/dbscaffold/internal/metadata"
	"github.com/tordrt/dbscaffold/internal/typemap"
)

// blog is a two table model: Blog has many Posts
func blog() *metadata.Model {
	fk := &metadata.ForeignKey{
		DependentEntity: "Post", Properties: []string{"BlogId"},
		PrincipalEntity: "Blog", PrincipalProperties: []string{"Id"},
		PrincipalKeyIsPrimary: true, IsRequired: true, DeleteBehavior: metadata.Cascade,
		DependentNavigation: "Blog", PrincipalNavigation: "Posts",
		Annotations: metadata.Annotations{annotation.Name: "FK_Posts_Blogs_BlogId"},
	}
	b := &metadata.EntityType{
		Name: "Blog", DbSetName: "Blogs",
		Annotations: metadata.Annotations{annotation.TableName: "Blogs", annotation.Schema: "dbo", annotation.Comment: "Blog posts"},
		Properties: []*metadata.Property{
			{Name: "Id", ClrType: "int", GoType: "int32", IsValueType: true, Annotations: metadata.Annotations{
				annotation.ColumnName: "Id", annotation.ColumnType: "int",
				annotation.ValueGenerated:                   annotation.OnAdd,
				annotation.SqlServerValueGenerationStrategy: annotation.StrategyIdentityColumn,
			}},
			{Name: "Title", ClrType: "string", GoType: "string", Annotations: metadata.Annotations{
				annotation.ColumnName: "Title", annotation.ColumnType: "nvarchar(100)", annotation.MaxLength: 100,
			}},
		},
		PrimaryKey:  &metadata.Key{Properties: []string{"Id"}, Annotations: metadata.Annotations{annotation.Name: "PK_Blogs"}},
		Navigations: []*metadata.Navigation{{Name: "Posts", TargetEntity: "Post", IsCollection: true, ForeignKey: fk}},
	}
	p := &metadata.EntityType{
		Name: "Post", DbSetName: "Posts",
		Annotations: metadata.Annotations{annotation.TableName: "Posts", annotation.Schema: "dbo"},
		Properties: []*metadata.Property{
			{Name: "PostId", ClrType: "int", GoType: "int32", IsValueType: true, Annotations: metadata.Annotations{
				annotation.ColumnName: "PostId", annotation.ColumnType: "int",
			}},
			{Name: "BlogId", ClrType: "int", GoType: "int32", IsValueType: true, Annotations: metadata.Annotations{
				annotation.ColumnName: "BlogId", annotation.ColumnType: "int",
			}},
			{Name: "PublishedOn", ClrType: "DateTime", GoType: "time.Time", IsValueType: true, IsNullable: true, Annotations: metadata.Annotations{
				annotation.ColumnName: "published_on", annotation.ColumnType: "datetime2",
			}},
		},
		PrimaryKey:  &metadata.Key{Properties: []string{"PostId"}, Annotations: metadata.Annotations{annotation.Name: "PK_Posts"}},
		ForeignKeys: []*metadata.ForeignKey{fk},
		Navigations: []*metadata.Navigation{{Name: "Blog", TargetEntity: "Blog", OnDependent: true, ForeignKey: fk}},
	}
	return &metadata.Model{
		Annotations: metadata.Annotations{annotation.DefaultSchema: "dbo"},
		Entities:    []*metadata.EntityType{b, p},
		Unmapped:    []metadata.UnmappedTable{{Table: "dbo.Audit", Reason: "no primary key and no columns"}},
	}
}

func newWriter(t *testing.T, m *metadata.Model, opts Options) *Writer {
	t.Helper()
	types, err := typemap.For(db.SQLServer)
	require.NoError(t, err)
	p, err := codegen.ProviderFor(db.SQLServer)
	require.NoError(t, err)
	return New(codegen.NewEngine(conventions.NewDefault(m, types), p), opts)
}

func renderBlog(t *testing.T, opts Options) *Output {
	t.Helper()
	m := blog()
	out, err := newWriter(t, m, opts).Render(m)
	require.NoError(t, err)
	return out
}

func TestRender_Context(t *testing.T) {
	out := renderBlog(t, Options{ContextName: "BlogContext", Namespace: "Blogging", ConnectionString: "Server=.;Database=blog"})
	require.Equal(t, "BlogContext.cs", out.ContextFile.Path)
	code := out.ContextFile.Code

	assert.True(t, strings.HasPrefix(code, "using System;\nusing System.Collections.Generic;\nusing Microsoft.EntityFrameworkCore;\n"))
	assert.Contains(t, code, "namespace Blogging;")
	assert.Contains(t, code, "public partial class BlogContext : DbContext")
	assert.Contains(t, code, "public BlogContext(DbContextOptions<BlogContext> options)")
	assert.Contains(t, code, "public virtual DbSet<Blog> Blogs { get; set; }")
	assert.Contains(t, code, "public virtual DbSet<Post> Posts { get; set; }")
	assert.Contains(t, code, "#warning To protect potentially sensitive information")
	assert.Contains(t, code, `=> optionsBuilder.UseSqlServer("Server=.;Database=blog");`)

	assert.Contains(t, code, "modelBuilder.Entity<Blog>(entity =>")
	assert.Contains(t, code, "entity.HasComment(\"Blog posts\");")
	assert.Contains(t, code, "entity.Property(e => e.Title)")
	assert.Contains(t, code, "        .IsRequired()")
	assert.Contains(t, code, ".HasMaxLength(100)")
	assert.Contains(t, code, "entity.HasOne(d => d.Blog)")
	assert.Contains(t, code, ".WithMany(p => p.Posts)")
	assert.Contains(t, code, ".HasForeignKey(d => d.BlogId);")
	assert.Contains(t, code, ".HasColumnName(\"published_on\")")
	assert.NotContains(t, code, "HasKey", "conventional keys need no configuration")

	assert.Contains(t, code, "OnModelCreatingPartial(modelBuilder);")
	assert.Contains(t, code, "partial void OnModelCreatingPartial(ModelBuilder modelBuilder);")
	assert.Contains(t, code, "//   dbo.Audit: no primary key and no columns")
}

func TestRender_SuppressOnConfiguring(t *testing.T) {
	out := renderBlog(t, Options{ConnectionString: "Server=.", SuppressOnConfiguring: true})
	assert.Equal(t, "AppDbContext.cs", out.ContextFile.Path)
	assert.NotContains(t, out.ContextFile.Code, "OnConfiguring(")
	assert.NotContains(t, out.ContextFile.Code, "#warning")
}

func TestRender_Entities(t *testing.T) {
	out := renderBlog(t, Options{Namespace: "Blogging"})
	require.Len(t, out.EntityFiles, 2)
	assert.Equal(t, "Blog.cs", out.EntityFiles[0].Path)

	b := out.EntityFiles[0].Code
	assert.Contains(t, b, "namespace Blogging;")
	assert.Contains(t, b, "/// <summary>\n/// Blog posts\n/// </summary>\npublic partial class Blog\n")
	assert.Contains(t, b, "    public int Id { get; set; }\n")
	assert.Contains(t, b, "    public string Title { get; set; }\n")
	assert.Contains(t, b, "    public virtual ICollection<Post> Posts { get; set; } = new List<Post>();\n")
	assert.NotContains(t, b, "[")

	p := out.EntityFiles[1].Code
	assert.Contains(t, p, "    public DateTime? PublishedOn { get; set; }\n")
	assert.Contains(t, p, "    public virtual Blog Blog { get; set; }\n")
}

func TestRender_DataAnnotations(t *testing.T) {
	out := renderBlog(t, Options{UseDataAnnotations: true})
	ctx := out.ContextFile.Code
	assert.NotContains(t, ctx, "HasMaxLength")
	assert.NotContains(t, ctx, "HasComment")
	assert.NotContains(t, ctx, "HasOne", "the relationship is expressed by attributes")

	b := out.EntityFiles[0].Code
	assert.Contains(t, b, "using System.ComponentModel.DataAnnotations;")
	assert.Contains(t, b, "using Microsoft.EntityFrameworkCore;")
	assert.Contains(t, b, "[Comment(\"Blog posts\")]\npublic partial class Blog")
	assert.Contains(t, b, "    [Required]\n")
	assert.Contains(t, b, "    [StringLength(100)]\n")
	assert.Contains(t, b, "    [InverseProperty(nameof(Post.Blog))]\n    public virtual ICollection<Post> Posts")

	p := out.EntityFiles[1].Code
	assert.Contains(t, p, "using System.ComponentModel.DataAnnotations.Schema;")
	assert.Contains(t, p, "    [ForeignKey(\"BlogId\")]\n")
	assert.Contains(t, p, "    [InverseProperty(nameof(Blog.Posts))]\n    public virtual Blog Blog { get; set; }")
	assert.Contains(t, p, "[Column(\"published_on\"")
}

func TestRender_Go(t *testing.T) {
	out := renderBlog(t, Options{Namespace: "Blogging.Models", Language: Go})
	require.Len(t, out.EntityFiles, 2)
	assert.Equal(t, "tables.go", out.ContextFile.Path)
	assert.Equal(t, "blog.go", out.EntityFiles[0].Path)

	b := out.EntityFiles[0].Code
	assert.Contains(t, b, "package models")
	assert.Contains(t, b, "// Blog posts")
	assert.Contains(t, b, "type Blog struct")
	assert.Contains(t, b, "`db:\"Title\"`")
	assert.Contains(t, b, `return "dbo.Blogs"`)

	p := out.EntityFiles[1].Code
	assert.Contains(t, p, `import "time"`)
	assert.Contains(t, p, "*time.Time")
	assert.Contains(t, p, "`db:\"published_on\"`")

	assert.Contains(t, out.ContextFile.Code, `"dbo.Posts": &Post{}`)
}

func TestRender_GoNames(t *testing.T) {
	prop := func(name, column string) *metadata.Property {
		return &metadata.Property{Name: name, ClrType: "string", GoType: "string", Annotations: metadata.Annotations{
			annotation.ColumnName: column, annotation.ColumnType: "nvarchar(max)",
		}}
	}
	m := &metadata.Model{Entities: []*metadata.EntityType{
		{Name: "Tables", Annotations: metadata.Annotations{annotation.TableName: "tables"}, Properties: []*metadata.Property{prop("Name", "name")}},
		{Name: "@class", Annotations: metadata.Annotations{annotation.TableName: "class"}, Properties: []*metadata.Property{
			prop("@type", "type"), prop("TableName", "table_name"),
		}},
	}}

	out, err := newWriter(t, m, Options{Language: Go}).Render(m)
	require.NoError(t, err)
	require.Len(t, out.EntityFiles, 2)
	assert.Equal(t, "tables.go", out.EntityFiles[0].Path)
	assert.Equal(t, "class_.go", out.EntityFiles[1].Path)
	assert.Equal(t, "tables1.go", out.ContextFile.Path)
	assert.Contains(t, out.ContextFile.Code, "var Tables1 = map[string]interface{}")
	assert.Contains(t, out.ContextFile.Code, `"class": &class_{}`)

	c := out.EntityFiles[1].Code
	assert.Contains(t, c, "type class_ struct")
	assert.Regexp(t, `type_\s+string\s+`+"`db:\"type\"`", c)
	assert.Regexp(t, `TableName1\s+string\s+`+"`db:\"table_name\"`", c)
	assert.Contains(t, c, "func (class_) TableName() string")
}

func TestParseLanguage(t *testing.T) {
	for in, want := range map[string]Language{"": CSharp, "cs": CSharp, "c#": CSharp, "go": Go, "golang": Go} {
		got, err := ParseLanguage(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLanguage("vb")
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	m := blog()
	paths, err := newWriter(t, m, Options{}).Write(m, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "AppDbContext.cs"),
		filepath.Join(dir, "Blog.cs"),
		filepath.Join(dir, "Post.cs"),
	}, paths)
	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Contains(t, string(data), "public partial class Blog")
}

func TestWrite_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "Blog.cs")
	require.NoError(t, os.WriteFile(existing, []byte("// mine"), 0o644))

	m := blog()
	_, err := newWriter(t, m, Options{}).Write(m, dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFileExists))
	var conflict *ExistingFileConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{existing}, conflict.Paths)

	_, statErr := os.Stat(filepath.Join(dir, "AppDbContext.cs"))
	assert.True(t, os.IsNotExist(statErr), "nothing is written on conflict")

	_, err = newWriter(t, m, Options{Overwrite: true}).Write(m, dir)
	require.NoError(t, err)
	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.NotEqual(t, "// mine", string(data))
}

func TestWrite_ReadOnlyFile(t *testing.T) {
	dir := t.TempDir()
	locked := filepath.Join(dir, "Post.cs")
	require.NoError(t, os.WriteFile(locked, []byte("// locked"), 0o444))

	m := blog()
	_, err := newWriter(t, m, Options{Overwrite: true}).Write(m, dir)
	assert.ErrorIs(t, err, ErrReadOnlyFile)
	assert.Contains(t, err.Error(), locked)
}

func TestWrite_StopsAtFirstFailure(t *testing.T) {
	dir := t.TempDir()
	// a directory in place of Blog.cs passes the checks but cannot be written
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Blog.cs"), 0o755))

	m := blog()
	_, err := newWriter(t, m, Options{Overwrite: true}).Write(m, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write Blog.cs")

	_, statErr := os.Stat(filepath.Join(dir, "AppDbContext.cs"))
	assert.NoError(t, statErr, "files before the failure are written")
	_, statErr = os.Stat(filepath.Join(dir, "Post.cs"))
	assert.True(t, os.IsNotExist(statErr), "files after the failure are not written")
}

func TestUsings(t *testing.T) {
	got := usings("App", "Microsoft.EntityFrameworkCore", "System.Collections.Generic", "App", "", "System", "Microsoft.EntityFrameworkCore")
	assert.Equal(t, []string{"System", "System.Collections.Generic", "Microsoft.EntityFrameworkCore"}, got)
}
