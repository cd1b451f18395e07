package repositories

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// isDuplicateEntry reports a MySQL/MariaDB unique key violation (1062) so
// repositories can translate it into the conflict errors of the model
// taxonomy instead of leaking driver errors.
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
