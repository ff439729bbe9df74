package mdgen

import (
	"fmt"
	"os"
	"reflect"
	"strings"
)

// Field is one environment variable read by the configuration
type Field struct {
	Env         string
	Default     string
	Description string
	Secret      bool
}

// Section groups the variables of one nested configuration struct
type Section struct {
	Title  string
	Fields []Field
}

// Collect walks the envconfig tags of cfg. Top level scalars land in a
// "General Settings" section, every prefixed struct gets its own section.
func Collect(cfg interface{}) []Section {
	t := reflect.TypeOf(cfg)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	general := Section{Title: "General Settings"}
	var nested []Section
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag, ok := field.Tag.Lookup("env")
		if !ok {
			continue
		}
		name, opts := parseTag(tag)

		ft := field.Type
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct {
			section := Section{Title: field.Tag.Get("description")}
			for j := 0; j < ft.NumField(); j++ {
				if f, ok := fieldOf(ft.Field(j), opts["prefix"]); ok {
					section.Fields = append(section.Fields, f)
				}
			}
			nested = append(nested, section)
			continue
		}

		if name == "" {
			continue
		}
		if f, ok := fieldOf(field, ""); ok {
			general.Fields = append(general.Fields, f)
		}
	}

	return append([]Section{general}, nested...)
}

func fieldOf(field reflect.StructField, prefix string) (Field, bool) {
	tag, ok := field.Tag.Lookup("env")
	if !ok {
		return Field{}, false
	}
	name, opts := parseTag(tag)
	if name == "" {
		return Field{}, false
	}
	return Field{
		Env:         prefix + name,
		Default:     opts["default"],
		Description: field.Tag.Get("description"),
		Secret:      field.Tag.Get("type") == "secret",
	}, true
}

func parseTag(tag string) (string, map[string]string) {
	parts := strings.Split(tag, ",")
	opts := make(map[string]string, len(parts))
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if key, value, ok := strings.Cut(part, "="); ok {
			opts[key] = value
		}
	}
	return strings.TrimSpace(parts[0]), opts
}

// GenerateConfigurationsMD writes a markdown table per configuration section
func GenerateConfigurationsMD(filePath string, cfg interface{}) error {
	var sb strings.Builder
	sb.WriteString("# Instruct Agent Configuration\n\n")

	for _, section := range Collect(cfg) {
		sb.WriteString(fmt.Sprintf("## %s\n\n", section.Title))
		sb.WriteString("| Environment Variable | Default Value | Description |\n")
		sb.WriteString("|---------------------|---------------|-------------|\n")
		for _, field := range section.Fields {
			defaultVal := "`" + field.Default + "`"
			if field.Default == "" {
				defaultVal = "`\"\"`"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", field.Env, defaultVal, field.Description))
		}
		sb.WriteString("\n")
	}

	return os.WriteFile(filePath, []byte(sb.String()), 0644)
}

// GenerateEnvExample writes a dotenv file holding every variable with its
// default. Secrets are left blank.
func GenerateEnvExample(filePath string, cfg interface{}) error {
	var sb strings.Builder
	for i, section := range Collect(cfg) {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("# %s\n", section.Title))
		for _, field := range section.Fields {
			value := field.Default
			if field.Secret {
				value = ""
			}
			sb.WriteString(fmt.Sprintf("%s=%s\n", field.Env, value))
		}
	}

	return os.WriteFile(filePath, []byte(sb.String()), 0644)
}
