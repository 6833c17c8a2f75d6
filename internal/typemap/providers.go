package typemap

import "strings"

// Store types are keyed by normalized base name; a few keys include their
// arguments where those change the CLR type (tinyint(1) is a MySQL bool).

var sqlServerTypes = map[string]entry{
	"int":              {clr: "int", conventional: true},
	"bigint":           {clr: "long", conventional: true},
	"smallint":         {clr: "short", conventional: true},
	"tinyint":          {clr: "byte", conventional: true},
	"bit":              {clr: "bool", conventional: true},
	"nvarchar":         {clr: "string", conventional: true, facet: lengthFacet},
	"varchar":          {clr: "string", conventional: true, facet: lengthFacet, nonUnicode: true},
	"nchar":            {clr: "string", conventional: true, facet: lengthFacet, fixedLength: true},
	"char":             {clr: "string", conventional: true, facet: lengthFacet, nonUnicode: true, fixedLength: true},
	"ntext":            {clr: "string"},
	"text":             {clr: "string", nonUnicode: true},
	"xml":              {clr: "string"},
	"decimal":          {clr: "decimal", conventional: true, facet: precisionScaleFacet, defaultPrecision: 18, defaultScale: 2},
	"numeric":          {clr: "decimal", facet: precisionScaleFacet, defaultPrecision: 18, defaultScale: 2},
	"money":            {clr: "decimal"},
	"smallmoney":       {clr: "decimal"},
	"float":            {clr: "double", conventional: true},
	"real":             {clr: "float", conventional: true},
	"datetime2":        {clr: "DateTime", conventional: true, facet: precisionFacet, defaultPrecision: 7},
	"datetime":         {clr: "DateTime"},
	"smalldatetime":    {clr: "DateTime"},
	"date":             {clr: "DateOnly", conventional: true},
	"time":             {clr: "TimeOnly", conventional: true, facet: precisionFacet, defaultPrecision: 7},
	"datetimeoffset":   {clr: "DateTimeOffset", conventional: true, facet: precisionFacet, defaultPrecision: 7},
	"uniqueidentifier": {clr: "Guid", conventional: true},
	"varbinary":        {clr: "byte[]", conventional: true, facet: lengthFacet},
	"binary":           {clr: "byte[]", conventional: true, facet: lengthFacet, fixedLength: true},
	"image":            {clr: "byte[]"},
	"rowversion":       {clr: "byte[]", conventional: true, rowVersion: true},
}

var postgresTypes = map[string]entry{
	"integer":                     {clr: "int", conventional: true},
	"int4":                        {clr: "int", conventional: true},
	"bigint":                      {clr: "long", conventional: true},
	"int8":                        {clr: "long", conventional: true},
	"smallint":                    {clr: "short", conventional: true},
	"int2":                        {clr: "short", conventional: true},
	"boolean":                     {clr: "bool", conventional: true},
	"text":                        {clr: "string", conventional: true},
	"character varying":           {clr: "string", conventional: true, facet: lengthFacet},
	"varchar":                     {clr: "string", conventional: true, facet: lengthFacet},
	"character":                   {clr: "string", conventional: true, facet: lengthFacet, fixedLength: true},
	"citext":                      {clr: "string"},
	"numeric":                     {clr: "decimal", conventional: true, facet: precisionScaleFacet},
	"real":                        {clr: "float", conventional: true},
	"double precision":            {clr: "double", conventional: true},
	"money":                       {clr: "decimal"},
	"uuid":                        {clr: "Guid", conventional: true},
	"bytea":                       {clr: "byte[]", conventional: true},
	"timestamp with time zone":    {clr: "DateTime", conventional: true, facet: precisionFacet, defaultPrecision: 6},
	"timestamp without time zone": {clr: "DateTime", facet: precisionFacet, defaultPrecision: 6},
	"date":                        {clr: "DateOnly", conventional: true},
	"time without time zone":      {clr: "TimeOnly", conventional: true, facet: precisionFacet, defaultPrecision: 6},
	"time with time zone":         {clr: "DateTimeOffset"},
	"interval":                    {clr: "TimeSpan", conventional: true, facet: precisionFacet, defaultPrecision: 6},
	"json":                        {clr: "string"},
	"jsonb":                       {clr: "string"},
	"xml":                         {clr: "string"},
	"inet":                        {clr: "string"},
}

// postgresArray maps element[] to a CLR array of the element's type
func postgresArray(base string, _ []int) (entry, bool) {
	elem, ok := strings.CutSuffix(base, "[]")
	if !ok {
		return entry{}, false
	}
	e, ok := postgresTypes[elem]
	if !ok || e.clr == "byte[]" {
		return entry{}, false
	}
	return entry{clr: e.clr + "[]", conventional: e.conventional}, true
}

var mySQLTypes = map[string]entry{
	"int":                {clr: "int", conventional: true},
	"int unsigned":       {clr: "uint", conventional: true},
	"bigint":             {clr: "long", conventional: true},
	"bigint unsigned":    {clr: "ulong", conventional: true},
	"smallint":           {clr: "short", conventional: true},
	"smallint unsigned":  {clr: "ushort", conventional: true},
	"mediumint":          {clr: "int"},
	"tinyint":            {clr: "sbyte", conventional: true},
	"tinyint unsigned":   {clr: "byte", conventional: true},
	"tinyint(1)":         {clr: "bool", conventional: true},
	"bit":                {clr: "ulong", facet: lengthFacet},
	"varchar":            {clr: "string", conventional: true, facet: lengthFacet},
	"char":               {clr: "string", conventional: true, facet: lengthFacet, fixedLength: true},
	"longtext":           {clr: "string", conventional: true},
	"mediumtext":         {clr: "string"},
	"text":               {clr: "string"},
	"tinytext":           {clr: "string"},
	"enum":               {clr: "string"},
	"set":                {clr: "string"},
	"json":               {clr: "string"},
	"decimal":            {clr: "decimal", conventional: true, facet: precisionScaleFacet, defaultPrecision: 65, defaultScale: 30},
	"double":             {clr: "double", conventional: true},
	"float":              {clr: "float", conventional: true},
	"datetime":           {clr: "DateTime", conventional: true, facet: precisionFacet, defaultPrecision: 6},
	"timestamp":          {clr: "DateTime", facet: precisionFacet, defaultPrecision: 6},
	"date":               {clr: "DateOnly", conventional: true},
	"time":               {clr: "TimeOnly", conventional: true, facet: precisionFacet, defaultPrecision: 6},
	"year":               {clr: "short"},
	"binary(16)":         {clr: "Guid"},
	"binary":             {clr: "byte[]", conventional: true, facet: lengthFacet, fixedLength: true},
	"varbinary":          {clr: "byte[]", conventional: true, facet: lengthFacet},
	"blob":               {clr: "byte[]"},
	"longblob":           {clr: "byte[]", conventional: true},
	"mediumblob":         {clr: "byte[]"},
}

var sqliteTypes = map[string]entry{
	"integer": {clr: "long", conventional: true},
	"text":    {clr: "string", conventional: true},
	"real":    {clr: "double", conventional: true},
	"blob":    {clr: "byte[]", conventional: true},
}

// sqliteAffinity applies SQLite's column affinity rules to free-form
// declared types. Numeric types with a precision pick the narrowest
// integral type that holds them.
func sqliteAffinity(base string, args []int) (entry, bool) {
	switch base {
	case "number", "numeric", "decimal":
		if len(args) == 2 && args[1] > 0 {
			return entry{clr: "decimal"}, true
		}
		if len(args) > 0 && args[0] <= 10 {
			return entry{clr: "int"}, true
		}
		if len(args) > 0 && args[0] <= 19 {
			return entry{clr: "long"}, true
		}
		return entry{clr: "decimal"}, true
	case "boolean", "bit":
		return entry{clr: "bool"}, true
	case "date", "datetime", "timestamp":
		return entry{clr: "DateTime"}, true
	case "uniqueidentifier", "guid", "uuid":
		return entry{clr: "Guid"}, true
	}
	switch {
	case strings.Contains(base, "int"):
		return entry{clr: "long"}, true
	case strings.Contains(base, "char"), strings.Contains(base, "clob"), strings.Contains(base, "text"):
		return entry{clr: "string"}, true
	case strings.Contains(base, "blob"), base == "":
		return entry{clr: "byte[]"}, true
	case strings.Contains(base, "real"), strings.Contains(base, "floa"), strings.Contains(base, "doub"):
		return entry{clr: "double"}, true
	}
	return entry{clr: "string"}, true
}
