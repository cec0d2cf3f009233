package source

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/xuri/excelize/v2"

	"github.com/shaiso/dataflow/internal/table"
)

// maxLineSize — максимальная длина строки JSONL.
const maxLineSize = 16 << 20

// Parse разбирает содержимое файла в таблицу.
func Parse(r io.Reader, format Format, gzipped bool, sheet string) (*table.Table, error) {
	if gzipped {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open gzip: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	switch format {
	case FormatCSV:
		return parseDelimited(r, ',')
	case FormatTSV:
		return parseDelimited(r, '\t')
	case FormatJSON:
		return parseJSON(r)
	case FormatJSONL:
		return parseJSONL(r)
	case FormatXLSX:
		return parseXLSX(r, sheet)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// parseDelimited читает CSV/TSV: первая строка — заголовок.
func parseDelimited(r io.Reader, sep rune) (*table.Table, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.Comma = sep
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		return table.Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		if header[i] == "" {
			header[i] = "Unnamed: " + strconv.Itoa(i)
		}
	}

	rows := make([][]any, 0, 128)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		row := make([]any, len(header))
		for i := 0; i < len(header) && i < len(rec); i++ {
			row[i] = table.ParseCell(rec[i])
		}
		rows = append(rows, row)
	}
	return table.New(header, rows), nil
}

// parseJSON читает массив объектов. Одиночный объект — таблица из одной строки.
func parseJSON(r io.Reader) (*table.Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return table.Empty(), nil
		}
		return nil, fmt.Errorf("decode json: %w", err)
	}

	switch v := raw.(type) {
	case []any:
		records := make([]map[string]any, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("decode json: element %d is not an object", i)
			}
			records = append(records, flatten(obj))
		}
		return table.FromRecords(records, nil), nil
	case map[string]any:
		rec := flatten(v)
		return table.FromRecords([]map[string]any{rec}, nil), nil
	}
	return nil, fmt.Errorf("decode json: expected array of objects")
}

// parseJSONL читает по одному объекту на строку. Пустые строки пропускаются.
func parseJSONL(r io.Reader) (*table.Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	var records []map[string]any
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		obj, err := decodeObject(b)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, obj)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan jsonl: %w", err)
	}
	return table.FromRecords(records, nil), nil
}

// decodeObject разбирает JSON-объект с сохранением чисел.
func decodeObject(b []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	return flatten(obj), nil
}

// flatten разворачивает вложенные объекты в ключи через точку:
// {"a": {"b": 1}} → {"a.b": 1}. Массивы сохраняются как JSON-строка.
func flatten(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	var walk func(prefix string, v any)
	walk = func(prefix string, v any) {
		switch x := v.(type) {
		case map[string]any:
			for k, inner := range x {
				walk(prefix+"."+k, inner)
			}
		case []any:
			b, _ := json.Marshal(x)
			out[prefix] = string(b)
		default:
			out[prefix] = x
		}
	}
	for k, v := range obj {
		walk(k, v)
	}
	return out
}

// parseXLSX читает лист книги Excel. Первая строка — заголовок.
func parseXLSX(r io.Reader, sheet string) (*table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	name, err := resolveSheet(f.GetSheetList(), sheet)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}
	if len(rows) == 0 {
		return table.Empty(), nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
		if header[i] == "" {
			header[i] = "Unnamed: " + strconv.Itoa(i)
		}
	}

	out := make([][]any, 0, len(rows)-1)
	for _, rec := range rows[1:] {
		row := make([]any, len(header))
		for i := 0; i < len(header) && i < len(rec); i++ {
			row[i] = table.ParseCell(rec[i])
		}
		out = append(out, row)
	}
	return table.New(header, out), nil
}

// resolveSheet находит лист по имени или номеру (с нуля).
func resolveSheet(sheets []string, want string) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
	}
	want = strings.TrimSpace(want)
	if want == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if s == want {
			return s, nil
		}
	}
	if i, err := strconv.Atoi(want); err == nil && i >= 0 && i < len(sheets) {
		return sheets[i], nil
	}
	return "", fmt.Errorf("%w: %q", ErrSheetNotFound, want)
}
