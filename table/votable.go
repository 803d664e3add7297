package table

import (
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/cockroachdb/errors"

	"github.com/hugr-lab/sia-go/dalerr"
)

// VOTableNamespace is the namespace written by WriteVOTable.
const VOTableNamespace = "http://www.ivoa.net/xml/VOTable/v1.3"

// Query status values reported in the QUERY_STATUS INFO element.
const (
	StatusOK       = "OK"
	StatusError    = "ERROR"
	StatusOverflow = "OVERFLOW"
)

const queryStatus = "QUERY_STATUS"

type voDoc struct {
	XMLName   xml.Name     `xml:"VOTABLE"`
	Xmlns     string       `xml:"xmlns,attr,omitempty"`
	Version   string       `xml:"version,attr,omitempty"`
	Infos     []voInfo     `xml:"INFO"`
	Resources []voResource `xml:"RESOURCE"`
}

type voInfo struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
	Text  string `xml:",chardata"`
}

type voResource struct {
	Type      string       `xml:"type,attr,omitempty"`
	Infos     []voInfo     `xml:"INFO"`
	Tables    []voTable    `xml:"TABLE"`
	Resources []voResource `xml:"RESOURCE"`
}

type voTable struct {
	Name   string    `xml:"name,attr,omitempty"`
	Fields []voField `xml:"FIELD"`
	Data   *voData   `xml:"DATA"`
}

type voField struct {
	Name      string    `xml:"name,attr"`
	ID        string    `xml:"ID,attr,omitempty"`
	Datatype  string    `xml:"datatype,attr"`
	Arraysize string    `xml:"arraysize,attr,omitempty"`
	Unit      string    `xml:"unit,attr,omitempty"`
	UCD       string    `xml:"ucd,attr,omitempty"`
	Utype     string    `xml:"utype,attr,omitempty"`
	Xtype     string    `xml:"xtype,attr,omitempty"`
	Values    *voValues `xml:"VALUES"`
}

type voValues struct {
	Null string `xml:"null,attr,omitempty"`
}

type voData struct {
	TableData *voTableData `xml:"TABLEDATA"`
	Binary    *struct{}    `xml:"BINARY"`
	Binary2   *struct{}    `xml:"BINARY2"`
	FITS      *struct{}    `xml:"FITS"`
}

type voTableData struct {
	Rows []voRow `xml:"TR"`
}

type voRow struct {
	Cells []string `xml:"TD"`
}

// DecodeVOTable parses a VOTable document with TABLEDATA serialization. The
// first table of the resource typed "results" (or of the first resource
// holding a table) is decoded. QUERY_STATUS=ERROR becomes a
// *dalerr.QueryError and OVERFLOW marks the table as truncated.
func DecodeVOTable(r io.Reader, opts Options) (*Table, error) {
	var doc voDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, formatErr(FormatVOTable, errors.Wrap(err, "parse VOTable"))
	}

	res := resultsResource(doc.Resources)
	infos := append([]voInfo(nil), doc.Infos...)
	if res != nil {
		infos = append(infos, res.Infos...)
	}

	status, message := StatusOK, ""
	for _, info := range infos {
		if info.Name == queryStatus {
			status = strings.ToUpper(strings.TrimSpace(info.Value))
			message = strings.TrimSpace(info.Text)
		}
	}
	if status == StatusError {
		if message == "" {
			message = "service reported QUERY_STATUS=ERROR"
		}
		return nil, &dalerr.QueryError{Reason: message}
	}

	if res == nil || len(res.Tables) == 0 {
		return nil, formatErr(FormatVOTable, errors.New("no result table"))
	}
	vt := res.Tables[0]

	t, err := buildTable(vt, opts)
	if err != nil {
		return nil, formatErr(FormatVOTable, err)
	}
	t.SetOverflow(status == StatusOverflow)
	for _, info := range infos {
		if info.Name != "" {
			t.SetInfo(info.Name, info.Value)
		}
	}
	return t, nil
}

func resultsResource(list []voResource) *voResource {
	var first *voResource
	var walk func([]voResource) *voResource
	walk = func(list []voResource) *voResource {
		for i := range list {
			r := &list[i]
			if strings.EqualFold(r.Type, "results") && len(r.Tables) > 0 {
				return r
			}
			if first == nil && len(r.Tables) > 0 {
				first = r
			}
			if found := walk(r.Resources); found != nil {
				return found
			}
		}
		return nil
	}
	if r := walk(list); r != nil {
		return r
	}
	if first != nil {
		return first
	}
	if len(list) > 0 {
		return &list[0]
	}
	return nil
}

func buildTable(vt voTable, opts Options) (*Table, error) {
	if vt.Data != nil && vt.Data.TableData == nil &&
		(vt.Data.Binary != nil || vt.Data.Binary2 != nil || vt.Data.FITS != nil) {
		return nil, errors.New("only TABLEDATA serialization is supported")
	}

	fields := make([]arrow.Field, len(vt.Fields))
	nulls := make([]string, len(vt.Fields))
	for i, f := range vt.Fields {
		name := f.Name
		if name == "" {
			name = f.ID
		}
		md := map[string]string{MetaDatatype: f.Datatype}
		for k, v := range map[string]string{MetaUnit: f.Unit, MetaUCD: f.UCD, MetaUtype: f.Utype, MetaXtype: f.Xtype} {
			if v != "" {
				md[k] = v
			}
		}
		fields[i] = arrow.Field{
			Name:     name,
			Type:     voArrowType(f),
			Nullable: true,
			Metadata: arrow.MetadataFrom(md),
		}
		if f.Values != nil {
			nulls[i] = f.Values.Null
		}
	}
	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(opts.allocator(), schema)
	defer b.Release()

	if vt.Data != nil && vt.Data.TableData != nil {
		for ri, row := range vt.Data.TableData.Rows {
			if len(row.Cells) > len(fields) {
				return nil, errors.Newf("row %d has %d cells for %d fields", ri, len(row.Cells), len(fields))
			}
			for ci := range fields {
				raw := ""
				if ci < len(row.Cells) {
					raw = strings.TrimSpace(row.Cells[ci])
				}
				if err := appendCell(b.Field(ci), raw, nulls[ci]); err != nil {
					return nil, errors.Wrapf(err, "row %d, field %s", ri, fields[ci].Name)
				}
			}
		}
	}

	rec := b.NewRecord()
	defer rec.Release()
	return New(rec), nil
}

func voArrowType(f voField) arrow.DataType {
	dt := strings.TrimSpace(f.Datatype)
	if f.Arraysize != "" && dt != "char" && dt != "unicodeChar" {
		// numeric arrays stay in their text form
		return arrow.BinaryTypes.String
	}
	switch dt {
	case "boolean", "bit":
		return arrow.FixedWidthTypes.Boolean
	case "unsignedByte":
		return arrow.PrimitiveTypes.Uint8
	case "short":
		return arrow.PrimitiveTypes.Int16
	case "int":
		return arrow.PrimitiveTypes.Int32
	case "long":
		return arrow.PrimitiveTypes.Int64
	case "float":
		return arrow.PrimitiveTypes.Float32
	case "double":
		return arrow.PrimitiveTypes.Float64
	}
	return arrow.BinaryTypes.String
}

func appendCell(b array.Builder, raw, null string) error {
	if raw == "" || (null != "" && raw == null) {
		b.AppendNull()
		return nil
	}
	switch b := b.(type) {
	case *array.StringBuilder:
		b.Append(raw)
	case *array.BooleanBuilder:
		switch strings.ToLower(raw) {
		case "t", "true", "1":
			b.Append(true)
		case "f", "false", "0":
			b.Append(false)
		case "?":
			b.AppendNull()
		default:
			return errors.Newf("bad boolean %q", raw)
		}
	case *array.Uint8Builder:
		v, err := strconv.ParseUint(raw, 10, 8)
		if err != nil {
			return err
		}
		b.Append(uint8(v))
	case *array.Int16Builder:
		v, err := strconv.ParseInt(raw, 10, 16)
		if err != nil {
			return err
		}
		b.Append(int16(v))
	case *array.Int32Builder:
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return err
		}
		b.Append(int32(v))
	case *array.Int64Builder:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		b.Append(v)
	case *array.Float32Builder:
		v, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return err
		}
		b.Append(float32(v))
	case *array.Float64Builder:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		b.Append(v)
	default:
		return errors.Newf("unsupported builder %T", b)
	}
	return nil
}

// WriteVOTable serializes the table as a VOTable 1.3 document with
// TABLEDATA. Overflowed tables carry QUERY_STATUS=OVERFLOW.
func WriteVOTable(w io.Writer, t *Table) error {
	status := StatusOK
	if t.Overflow() {
		status = StatusOverflow
	}

	schema := t.Schema()
	vt := voTable{Name: "results", Data: &voData{TableData: &voTableData{}}}
	for _, f := range schema.Fields() {
		vt.Fields = append(vt.Fields, voFieldFor(f))
	}
	for i := 0; i < t.NumRows(); i++ {
		row := voRow{Cells: make([]string, schema.NumFields())}
		for j := range row.Cells {
			row.Cells[j] = tdText(cell(t.Record().Column(j), i))
		}
		vt.Data.TableData.Rows = append(vt.Data.TableData.Rows, row)
	}

	doc := voDoc{
		Xmlns:   VOTableNamespace,
		Version: "1.3",
		Resources: []voResource{{
			Type:   "results",
			Infos:  []voInfo{{Name: queryStatus, Value: status}},
			Tables: []voTable{vt},
		}},
	}
	return writeDoc(w, doc)
}

// WriteVOTableError writes a VOTable carrying QUERY_STATUS=ERROR and the
// message.
func WriteVOTableError(w io.Writer, message string) error {
	doc := voDoc{
		Xmlns:   VOTableNamespace,
		Version: "1.3",
		Resources: []voResource{{
			Type:  "results",
			Infos: []voInfo{{Name: queryStatus, Value: StatusError, Text: message}},
		}},
	}
	return writeDoc(w, doc)
}

func writeDoc(w io.Writer, doc voDoc) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", " ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "encode VOTable")
	}
	return enc.Close()
}

func voFieldFor(f arrow.Field) voField {
	out := voField{Name: f.Name}
	get := func(k string) string {
		v, _ := f.Metadata.GetValue(k)
		return v
	}
	out.Unit, out.UCD, out.Utype, out.Xtype = get(MetaUnit), get(MetaUCD), get(MetaUtype), get(MetaXtype)

	switch f.Type.ID() {
	case arrow.BOOL:
		out.Datatype = "boolean"
	case arrow.UINT8:
		out.Datatype = "unsignedByte"
	case arrow.INT8, arrow.INT16:
		out.Datatype = "short"
	case arrow.INT32, arrow.UINT16:
		out.Datatype = "int"
	case arrow.INT64, arrow.UINT32, arrow.UINT64:
		out.Datatype = "long"
	case arrow.FLOAT32:
		out.Datatype = "float"
	case arrow.FLOAT64:
		out.Datatype = "double"
	case arrow.TIMESTAMP, arrow.DATE32, arrow.DATE64:
		out.Datatype, out.Arraysize = "char", "*"
		if out.Xtype == "" {
			out.Xtype = "timestamp"
		}
	default:
		out.Datatype, out.Arraysize = "char", "*"
	}
	return out
}

func tdText(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return hex.EncodeToString(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case bool:
		if v {
			return "T"
		}
		return "F"
	case time.Time:
		return v.UTC().Format("2006-01-02T15:04:05.999")
	}
	return fmt.Sprint(v)
}
