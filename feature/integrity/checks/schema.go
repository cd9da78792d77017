package checks

import (
	"fmt"
	"reflect"
	"strings"

	"connector-service/core/database"
	"connector-service/core/directory"

	"gorm.io/gorm"
)

// SchemaModels are the tables the service reads and writes.
var SchemaModels = []any{directory.Connector{}, directory.SyncJob{}}

// SchemaReport strictly types the result of a database schema check.
type SchemaReport struct {
	Driver  string                 `json:"driver"`
	Matched bool                   `json:"matched"`
	Tables  map[string]TableReport `json:"tables"`
	Errors  []string               `json:"errors"`
}

type TableReport struct {
	MissingColumns []string `json:"missing_columns"`
	TypeMismatches []string `json:"type_mismatches"`
	Status         string   `json:"status"` // "ok", "error"
}

// CheckSchema verifies the registry tables using the GORM models as the source of truth.
// Column types are only compared on drivers that report declared types.
func CheckSchema(db *gorm.DB) (*SchemaReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	driver := db.Dialector.Name()
	report := &SchemaReport{
		Driver:  driver,
		Matched: true,
		Tables:  make(map[string]TableReport),
		Errors:  []string{},
	}
	compareTypes := driver != "postgres"

	for _, model := range SchemaModels {
		typ := reflect.TypeOf(model)
		tabler, ok := reflect.New(typ).Interface().(interface{ TableName() string })
		if !ok {
			return nil, fmt.Errorf("model %s does not implement TableName", typ.Name())
		}
		tableName := tabler.TableName()

		actualCols, err := database.GetTableColumns(db, tableName)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Failed to inspect table %s: %v", tableName, err))
			report.Matched = false
			continue
		}
		actual := make(map[string]database.ColumnInfo, len(actualCols))
		for _, col := range actualCols {
			actual[col.Field] = col
		}

		tbl := TableReport{MissingColumns: []string{}, TypeMismatches: []string{}, Status: "ok"}
		for i := 0; i < typ.NumField(); i++ {
			tag := typ.Field(i).Tag.Get("gorm")
			colName := parseGormTag(tag, "column")
			if colName == "" {
				continue
			}

			col, exists := actual[colName]
			if !exists {
				tbl.MissingColumns = append(tbl.MissingColumns, colName)
				tbl.Status = "error"
				report.Matched = false
				continue
			}

			expType := strings.ToLower(parseGormTag(tag, "type"))
			if compareTypes && expType != "" && !strings.Contains(col.Type, expType) {
				tbl.TypeMismatches = append(tbl.TypeMismatches, fmt.Sprintf("%s: expected %s, got %s", colName, expType, col.Type))
				tbl.Status = "error"
				report.Matched = false
			}
		}
		report.Tables[tableName] = tbl
	}

	return report, nil
}

func parseGormTag(tag, key string) string {
	for _, p := range strings.Split(tag, ";") {
		if v, ok := strings.CutPrefix(p, key+":"); ok {
			return v
		}
	}
	return ""
}
