package sqlite

import (
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
)

// Migrate applies every *.sql script from fsys that the database hasn't seen
// yet, in lexical order. The applied count is tracked in pragma user_version,
// so each script runs exactly once per database. The whole run happens inside
// a savepoint; a failing script rolls everything back.
func Migrate(conn *sqlite.Conn, fsys fs.FS) (err error) {
	release := sqlitex.Save(conn)
	defer release(&err)

	var applied int
	if err = sqlitex.ExecTransient(conn, "pragma user_version", func(stmt *sqlite.Stmt) error {
		applied = stmt.ColumnInt(0)
		return nil
	}); err != nil {
		return fmt.Errorf("get version: %v", err)
	}

	scripts, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("list scripts: %v", err)
	}
	if applied >= len(scripts) {
		return nil
	}
	sort.Strings(scripts)

	for _, script := range scripts[applied:] {
		if err := runScript(conn, fsys, script); err != nil {
			return err
		}
	}

	version := strconv.Itoa(len(scripts))
	if err := sqlitex.Exec(conn, "pragma user_version="+version, nil); err != nil {
		return fmt.Errorf("set version: %v", err)
	}
	return nil
}

// runScript executes every statement of one migration script. Scripts may
// hold multiple statements; sqlite prepares them one at a time.
func runScript(conn *sqlite.Conn, fsys fs.FS, script string) error {
	buf, err := fs.ReadFile(fsys, script)
	if err != nil {
		return fmt.Errorf("read %s: %v", script, err)
	}
	queries := string(buf)
	for i := 0; queries != ""; i++ {
		stmt, trailingBytes, err := conn.PrepareTransient(queries)
		if err != nil {
			return fmt.Errorf("prepare %s, stmt %d: %v", script, i, err)
		}
		queries = strings.TrimSpace(queries[len(queries)-trailingBytes:])
		_, err = stmt.Step()
		stmt.Finalize()
		if err != nil {
			return fmt.Errorf("execute %s, stmt %d: %v", script, i, err)
		}
	}
	return nil
}
