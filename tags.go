package friendgraph

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
)

// entityMetadata holds the parsed `crud` tag information for a specific struct type.
type entityMetadata struct {
	// Label is the graph node label, defaulting to the struct's name.
	Label string
	// PKField is the name of the struct field marked as the primary key.
	PKField string
	// PKProp is the property name of the primary key in the database.
	PKProp string
	// Mappings maps struct field names to their corresponding database property names.
	Mappings map[string]string
}

// identifierPattern matches the label, relationship and property names that are
// safe to splice into Cypher text. Values always travel as parameters.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// metaCache stores parsed metadata per type to avoid reflection on every call.
var metaCache sync.Map

// metadataFor returns the cached metadata for typ, parsing it on first use.
func metadataFor(typ reflect.Type) (*entityMetadata, error) {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if cached, ok := metaCache.Load(typ); ok {
		return cached.(*entityMetadata), nil
	}
	meta, err := parseTagsFromType(typ)
	if err != nil {
		return nil, err
	}
	actual, _ := metaCache.LoadOrStore(typ, meta)
	return actual.(*entityMetadata), nil
}

// parseTagsFromType inspects a struct type and extracts persistence metadata
// from its `crud` struct tags, e.g. `crud:"pk,property:name"`.
func parseTagsFromType(typ reflect.Type) (*entityMetadata, error) {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("type %s is not a struct", typ.Name())
	}

	meta := &entityMetadata{
		Label:    typ.Name(),
		Mappings: make(map[string]string),
	}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("crud")
		if tag == "" {
			continue
		}

		isPk := false
		propName := ""
		for _, part := range strings.Split(tag, ",") {
			switch {
			case part == "pk":
				isPk = true
			case strings.HasPrefix(part, "property:"):
				propName = strings.TrimPrefix(part, "property:")
			case strings.HasPrefix(part, "label:"):
				meta.Label = strings.TrimPrefix(part, "label:")
			}
		}

		if propName == "" {
			return nil, fmt.Errorf("field %s is missing 'property' tag component", field.Name)
		}
		if !identifierPattern.MatchString(propName) {
			return nil, fmt.Errorf("field %s maps to invalid property name %q", field.Name, propName)
		}

		if isPk {
			if meta.PKField != "" {
				return nil, fmt.Errorf("struct %s declares more than one primary key", typ.Name())
			}
			meta.PKField = field.Name
			meta.PKProp = propName
		}
		meta.Mappings[field.Name] = propName
	}

	if meta.PKField == "" {
		return nil, fmt.Errorf("no primary key ('pk') tag defined for struct %s", typ.Name())
	}
	if !identifierPattern.MatchString(meta.Label) {
		return nil, fmt.Errorf("struct %s maps to invalid label %q", typ.Name(), meta.Label)
	}

	return meta, nil
}

// parseTags is a generic convenience wrapper around metadataFor.
func parseTags[T any]() (*entityMetadata, error) {
	var instance T
	return metadataFor(reflect.TypeOf(instance))
}

// properties returns the tagged field values of entity keyed by property name.
func (m *entityMetadata) properties(entity any) map[string]interface{} {
	val := reflect.Indirect(reflect.ValueOf(entity))
	props := make(map[string]interface{}, len(m.Mappings))
	for fieldName, propName := range m.Mappings {
		props[propName] = val.FieldByName(fieldName).Interface()
	}
	return props
}

// primaryKey returns the value of entity's primary key field.
func (m *entityMetadata) primaryKey(entity any) any {
	return reflect.Indirect(reflect.ValueOf(entity)).FieldByName(m.PKField).Interface()
}

// entityMetaAndPK retrieves an entity's metadata and primary key value.
func entityMetaAndPK(entity any) (*entityMetadata, any, error) {
	val := reflect.ValueOf(entity)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return nil, nil, fmt.Errorf("entity must be a non-nil pointer")
	}
	meta, err := metadataFor(val.Type())
	if err != nil {
		return nil, nil, err
	}
	return meta, meta.primaryKey(entity), nil
}
