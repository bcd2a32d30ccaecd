package commands

import (
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/beesaferoot/yatube/internal/config"
	"github.com/beesaferoot/yatube/internal/database"
)

func getDB() (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return database.Open(cfg.DatabaseURL, cfg.Debug)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func validateModelPath(path string) (string, error) {
	if path == "" {
		path = "models"
	}

	cleanpath := filepath.Clean(path)

	absPath, err := filepath.Abs(cleanpath)
	if err != nil {
		return "", fmt.Errorf("invalid model path: %w", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	if !strings.HasPrefix(absPath, wd) {
		return "", fmt.Errorf("model path must be within working directory")
	}

	return absPath, nil
}

const registryHeader = "// Code generated by yatube migrate register. DO NOT EDIT.\n\n"

func createModelRegisterFile(dirPath string) (string, error) {
	filePath := filepath.Join(dirPath, "models_registry.go")

	names, err := getModels(dirPath)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no models found in %s", dirPath)
	}

	var b strings.Builder
	b.WriteString(registryHeader)
	fmt.Fprintf(&b, "package %s\n\nvar ModelTypeRegistry = map[string]interface{}{\n", filepath.Base(dirPath))
	for _, name := range names {
		fmt.Fprintf(&b, "\t%q: %s{},\n", name, name)
	}
	b.WriteString("}\n")

	content, err := format.Source([]byte(b.String()))
	if err != nil {
		return "", fmt.Errorf("failed to format model registry: %w", err)
	}
	if err := os.WriteFile(filePath, content, 0644); err != nil {
		return "", fmt.Errorf("failed to create model registry file: %w", err)
	}

	return filePath, nil
}

// getModels lists the model structs declared in dirPath, sorted by name.
func getModels(dirPath string) ([]string, error) {
	var allModels []string

	files, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	for _, file := range files {
		name := file.Name()
		if file.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") || name == "models_registry.go" {
			continue
		}
		modelNames, err := modelParser(filepath.Join(dirPath, name))
		if err != nil {
			fmt.Printf("Warning: could not parse models from %s: %v\n", name, err)
			continue
		}
		allModels = append(allModels, modelNames...)
	}

	sort.Strings(allModels)
	return allModels, nil
}

// modelParser finds exported structs that are GORM models: they either embed
// gorm.Model or tag a field as the primary key.
func modelParser(file string) ([]string, error) {
	var modelNames []string

	fset := token.NewFileSet()

	node, err := parser.ParseFile(fset, file, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	ast.Inspect(node, func(n ast.Node) bool {
		typeSpec, ok := n.(*ast.TypeSpec)
		if !ok || !typeSpec.Name.IsExported() {
			return true
		}
		structType, ok := typeSpec.Type.(*ast.StructType)
		if !ok {
			return true
		}
		for _, field := range structType.Fields.List {
			if isGormModelEmbed(field) || isPrimaryKey(field) {
				modelNames = append(modelNames, typeSpec.Name.Name)
				break
			}
		}
		return true
	})
	return modelNames, nil
}

func isGormModelEmbed(field *ast.Field) bool {
	if len(field.Names) != 0 {
		return false
	}
	sel, ok := field.Type.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	ident, ok := sel.X.(*ast.Ident)
	return ok && ident.Name == "gorm" && sel.Sel.Name == "Model"
}

func isPrimaryKey(field *ast.Field) bool {
	if field.Tag == nil {
		return false
	}
	tag := reflect.StructTag(strings.Trim(field.Tag.Value, "`"))
	for _, setting := range strings.Split(tag.Get("gorm"), ";") {
		if strings.EqualFold(strings.TrimSpace(setting), "primaryKey") {
			return true
		}
	}
	return false
}
