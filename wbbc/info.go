package wbbc

import (
	"fmt"
	"strconv"
	"strings"
)

type InfoField struct {
	Key   string
	Value string
}

// Info is a parsed VCF INFO column. Fields keep their on-disk order; flags
// (fields without '=') have an empty Value. When a key repeats, lookups see
// the first occurrence.
type Info struct {
	fields []InfoField
	index  map[string]int
}

func ParseInfo(raw string) Info {
	parts := strings.Split(raw, ";")

	info := Info{
		fields: make([]InfoField, 0, len(parts)),
		index:  make(map[string]int, len(parts)),
	}

	for _, part := range parts {
		key, value, _ := strings.Cut(part, "=")
		if _, exists := info.index[key]; !exists {
			info.index[key] = len(info.fields)
		}
		info.fields = append(info.fields, InfoField{Key: key, Value: value})
	}

	return info
}

// Len is the number of ';'-separated entries, including empty ones.
func (i Info) Len() int {
	return len(i.fields)
}

func (i Info) Get(key string) (string, bool) {
	pos, exists := i.index[key]
	if !exists {
		return "", false
	}

	return i.fields[pos].Value, true
}

func (i Info) Float(key string) (float64, error) {
	value, exists := i.Get(key)
	if !exists {
		return 0, fmt.Errorf("INFO field %s is absent", key)
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("INFO field %s: %w", key, err)
	}

	return f, nil
}
