package codegen

import (
	"fmt"

	"github.com/tordrt/dbscaffold/internal/annotation"
	"github.com/tordrt/dbscaffold/internal/db"
	"github.com/tordrt/dbscaffold/internal/fragment"
	"github.com/tordrt/dbscaffold/internal/naming"
)

type mySQL struct{}

func (mySQL) Name() db.Provider { return db.MySQL }

func (mySQL) UseProvider(connString string) *fragment.MethodCall {
	version := fragment.Expr{
		Code: fmt.Sprintf("ServerVersion.AutoDetect(%s)", naming.String(connString)),
		Ns:   efNamespace,
	}
	return call("UseMySql", connString, version)
}

var mySQLCharSet = []Emitter{
	single(annotation.MySQLCharSet, "HasCharSet"),
	single(annotation.MySQLCollation, "UseCollation"),
}

func (mySQL) Emitters(kind Kind) []Emitter {
	switch kind {
	case ModelKind, EntityKind, PropertyKind:
		return mySQLCharSet
	}
	return nil
}

type sqlite struct{}

func (sqlite) Name() db.Provider { return db.SQLite }

func (sqlite) UseProvider(connString string) *fragment.MethodCall {
	return call("UseSqlite", connString)
}

func (sqlite) Emitters(Kind) []Emitter { return nil }
