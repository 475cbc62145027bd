// Package spreadsheettest provides an in-memory Sheets v4 endpoint for tests.
// It implements the handful of calls the spreadsheet package makes, with
// enough A1 handling for single-sheet ranges like "Quotes!A2:C".
package spreadsheettest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Op identifies a class of remote call for failure injection.
type Op string

const (
	OpMetadata Op = "metadata"
	OpAddSheet Op = "addSheet"
	OpFormat   Op = "format"
	OpSort     Op = "sort"
	OpGet      Op = "get"
	OpAppend   Op = "append"
	OpUpdate   Op = "update"
)

// Write records one values.append or values.update call.
type Write struct {
	Op          Op
	Range       string
	InputOption string
	Rows        [][]string
}

type worksheet struct {
	props sheets.SheetProperties
	rows  [][]string
}

type Server struct {
	URL string

	srv      *httptest.Server
	mu       sync.Mutex
	id       string
	title    string
	sheets   []*worksheet
	nextID   int64
	batches  []*sheets.BatchUpdateSpreadsheetRequest
	writes   []Write
	failures map[Op]int
}

func NewServer(t testing.TB, spreadsheetID, title string) *Server {
	t.Helper()

	s := &Server{id: spreadsheetID, title: title, failures: map[Op]int{}}
	srv := httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	t.Cleanup(srv.Close)
	s.srv = srv
	s.URL = srv.URL
	return s
}

// Service returns a Sheets client pointed at the fake endpoint.
func (s *Server) Service(t testing.TB) *sheets.Service {
	t.Helper()

	svc, err := sheets.NewService(t.Context(),
		option.WithoutAuthentication(),
		option.WithHTTPClient(s.srv.Client()),
		option.WithEndpoint(s.URL+"/"),
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

// AddWorksheet seeds a worksheet. The first one gets id 0, like a fresh
// spreadsheet's default tab.
func (s *Server) AddWorksheet(title string, rows ...[]string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(title, 1000, 26, rows).props.SheetId
}

// FailOn makes every subsequent call of kind op fail with the HTTP status code.
func (s *Server) FailOn(op Op, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = code
}

// Rows returns a copy of a worksheet's cells.
func (s *Server) Rows(title string) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws := s.byTitleLocked(title)
	if ws == nil {
		return nil
	}
	out := make([][]string, len(ws.rows))
	for i, row := range ws.rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Batches returns every batchUpdate body received, in order.
func (s *Server) Batches() []*sheets.BatchUpdateSpreadsheetRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*sheets.BatchUpdateSpreadsheetRequest(nil), s.batches...)
}

func (s *Server) Writes() []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Write(nil), s.writes...)
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/sheets")
	path = strings.TrimPrefix(path, "/v4/spreadsheets/")

	id, rest, hasValues := strings.Cut(path, "/values/")
	if !hasValues {
		id, _, _ = strings.Cut(path, ":")
	}
	if id != s.id {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Requested entity was not found.")
		return
	}

	switch {
	case hasValues && r.Method == http.MethodGet:
		s.getValues(w, rest)
	case hasValues && r.Method == http.MethodPost && strings.HasSuffix(rest, ":append"):
		s.writeValues(w, r, OpAppend, strings.TrimSuffix(rest, ":append"))
	case hasValues && r.Method == http.MethodPut:
		s.writeValues(w, r, OpUpdate, rest)
	case strings.HasSuffix(path, ":batchUpdate") && r.Method == http.MethodPost:
		s.batchUpdate(w, r)
	case r.Method == http.MethodGet:
		if s.fail(w, OpMetadata) {
			return
		}
		s.metadata(w)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) fail(w http.ResponseWriter, op Op) bool {
	code, ok := s.failures[op]
	if !ok {
		return false
	}
	writeError(w, code, "FAILED", fmt.Sprintf("injected %s failure", op))
	return true
}

func (s *Server) metadata(w http.ResponseWriter) {
	out := &sheets.Spreadsheet{
		SpreadsheetId: s.id,
		Properties:    &sheets.SpreadsheetProperties{Title: s.title},
	}
	for _, ws := range s.sheets {
		props := ws.props
		out.Sheets = append(out.Sheets, &sheets.Sheet{Properties: &props})
	}
	writeJSON(w, out)
}

func (s *Server) batchUpdate(w http.ResponseWriter, r *http.Request) {
	var req sheets.BatchUpdateSpreadsheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}

	op := OpFormat
	if len(req.Requests) > 0 {
		switch {
		case req.Requests[0].AddSheet != nil:
			op = OpAddSheet
		case req.Requests[0].SortRange != nil:
			op = OpSort
		}
	}
	if s.fail(w, op) {
		return
	}

	resp := &sheets.BatchUpdateSpreadsheetResponse{SpreadsheetId: s.id}
	for _, rq := range req.Requests {
		reply := &sheets.Response{}
		switch {
		case rq.AddSheet != nil:
			p := rq.AddSheet.Properties
			if s.byTitleLocked(p.Title) != nil {
				writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT",
					fmt.Sprintf("Invalid requests[0].addSheet: A sheet with the name %q already exists. Please enter another name.", p.Title))
				return
			}
			var rows, cols int64 = 1000, 26
			if p.GridProperties != nil {
				rows, cols = p.GridProperties.RowCount, p.GridProperties.ColumnCount
			}
			ws := s.addLocked(p.Title, rows, cols, nil)
			props := ws.props
			reply.AddSheet = &sheets.AddSheetResponse{Properties: &props}
		case rq.SortRange != nil:
			if err := s.sortLocked(rq.SortRange); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
				return
			}
		case rq.RepeatCell != nil:
			if s.byIDLocked(rq.RepeatCell.Range.SheetId) == nil {
				writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "No grid with id")
				return
			}
		case rq.UpdateSheetProperties != nil:
			ws := s.byIDLocked(rq.UpdateSheetProperties.Properties.SheetId)
			if ws == nil {
				writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "No grid with id")
				return
			}
			if gp := rq.UpdateSheetProperties.Properties.GridProperties; gp != nil {
				ws.props.GridProperties.FrozenRowCount = gp.FrozenRowCount
			}
		case rq.UpdateDimensionProperties != nil:
			if s.byIDLocked(rq.UpdateDimensionProperties.Range.SheetId) == nil {
				writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "No grid with id")
				return
			}
		}
		resp.Replies = append(resp.Replies, reply)
	}

	s.batches = append(s.batches, &req)
	writeJSON(w, resp)
}

func (s *Server) sortLocked(rq *sheets.SortRangeRequest) error {
	ws := s.byIDLocked(rq.Range.SheetId)
	if ws == nil {
		return fmt.Errorf("no grid with id %d", rq.Range.SheetId)
	}
	if len(rq.SortSpecs) != 1 {
		return fmt.Errorf("expected one sort spec")
	}
	spec := rq.SortSpecs[0]
	if spec.SortOrder != "ASCENDING" && spec.SortOrder != "DESCENDING" {
		return fmt.Errorf("invalid sortOrder %q", spec.SortOrder)
	}

	start := int(rq.Range.StartRowIndex)
	if start >= len(ws.rows) {
		return nil
	}
	body := ws.rows[start:]
	col := int(spec.DimensionIndex)
	sort.SliceStable(body, func(i, j int) bool {
		a, b := cell(body[i], col), cell(body[j], col)
		if spec.SortOrder == "DESCENDING" {
			return a > b
		}
		return a < b
	})
	return nil
}

func (s *Server) getValues(w http.ResponseWriter, rng string) {
	if s.fail(w, OpGet) {
		return
	}
	ref, err := parseRange(rng)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	ws := s.sheetLocked(ref.sheet)
	if ws == nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "Unable to parse range: "+rng)
		return
	}

	lastRow := len(ws.rows)
	if ref.endRow > 0 && ref.endRow < lastRow {
		lastRow = ref.endRow
	}

	var values [][]interface{}
	for r := ref.startRow; r <= lastRow; r++ {
		row := ws.rows[r-1]
		var cells []interface{}
		for c := ref.startCol; c < len(row) && (ref.endCol == 0 || c <= ref.endCol); c++ {
			cells = append(cells, row[c-1])
		}
		for len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		if cells == nil {
			cells = []interface{}{}
		}
		values = append(values, cells)
	}
	for len(values) > 0 && len(values[len(values)-1]) == 0 {
		values = values[:len(values)-1]
	}

	writeJSON(w, &sheets.ValueRange{Range: rng, MajorDimension: "ROWS", Values: values})
}

func (s *Server) writeValues(w http.ResponseWriter, r *http.Request, op Op, rng string) {
	if s.fail(w, op) {
		return
	}
	ref, err := parseRange(rng)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	ws := s.sheetLocked(ref.sheet)
	if ws == nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "Unable to parse range: "+rng)
		return
	}

	var body sheets.ValueRange
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	rows := make([][]string, len(body.Values))
	for i, row := range body.Values {
		rows[i] = make([]string, len(row))
		for j, c := range row {
			rows[i][j] = fmt.Sprintf("%v", c)
		}
	}
	s.writes = append(s.writes, Write{
		Op:          op,
		Range:       rng,
		InputOption: r.URL.Query().Get("valueInputOption"),
		Rows:        rows,
	})

	startRow := ref.startRow
	if op == OpAppend {
		startRow = lastDataRow(ws.rows) + 1
	}
	for i, row := range rows {
		for j, v := range row {
			setCell(ws, startRow+i, ref.startCol+j, v)
		}
	}

	if op == OpAppend {
		writeJSON(w, &sheets.AppendValuesResponse{SpreadsheetId: s.id, TableRange: rng})
		return
	}
	writeJSON(w, &sheets.UpdateValuesResponse{SpreadsheetId: s.id, UpdatedRange: rng, UpdatedRows: int64(len(rows))})
}

func (s *Server) addLocked(title string, rows, cols int64, data [][]string) *worksheet {
	ws := &worksheet{
		props: sheets.SheetProperties{
			SheetId: s.nextID,
			Title:   title,
			Index:   int64(len(s.sheets)),
			GridProperties: &sheets.GridProperties{
				RowCount:    rows,
				ColumnCount: cols,
			},
		},
	}
	for _, row := range data {
		ws.rows = append(ws.rows, append([]string(nil), row...))
	}
	if s.nextID == 0 {
		s.nextID = 1000
	}
	s.nextID++
	s.sheets = append(s.sheets, ws)
	return ws
}

// sheetLocked resolves a parsed range's sheet; "" is the first sheet.
func (s *Server) sheetLocked(title string) *worksheet {
	if title == "" {
		if len(s.sheets) == 0 {
			return nil
		}
		return s.sheets[0]
	}
	return s.byTitleLocked(title)
}

func (s *Server) byTitleLocked(title string) *worksheet {
	for _, ws := range s.sheets {
		if ws.props.Title == title {
			return ws
		}
	}
	return nil
}

func (s *Server) byIDLocked(id int64) *worksheet {
	for _, ws := range s.sheets {
		if ws.props.SheetId == id {
			return ws
		}
	}
	return nil
}

func lastDataRow(rows [][]string) int {
	for i := len(rows) - 1; i >= 0; i-- {
		for _, c := range rows[i] {
			if c != "" {
				return i + 1
			}
		}
	}
	return 0
}

func setCell(ws *worksheet, row, col int, v string) {
	for len(ws.rows) < row {
		ws.rows = append(ws.rows, nil)
	}
	for len(ws.rows[row-1]) < col {
		ws.rows[row-1] = append(ws.rows[row-1], "")
	}
	ws.rows[row-1][col-1] = v
}

func cell(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}

// a1Ref holds 1-based bounds; zero end values are open-ended.
type a1Ref struct {
	sheet            string
	startRow, endRow int
	startCol, endCol int
}

var (
	a1CellRe   = regexp.MustCompile(`^([A-Za-z]*)([0-9]*)$`)
	bareCellRe = regexp.MustCompile(`^(\$?[A-Za-z]{1,3}\$?[0-9]+|[A-Za-z$0-9]*:[A-Za-z$0-9]*)$`)
)

func parseRange(rng string) (a1Ref, error) {
	ref := a1Ref{startRow: 1, startCol: 1}

	sheetPart, cellPart, hasCells := strings.Cut(rng, "!")
	if !hasCells && bareCellRe.MatchString(rng) {
		// Like the API: an unquoted cell reference addresses the first sheet.
		sheetPart, cellPart, hasCells = "", rng, true
	}
	if strings.HasPrefix(sheetPart, "'") && strings.HasSuffix(sheetPart, "'") && len(sheetPart) >= 2 {
		sheetPart = strings.ReplaceAll(sheetPart[1:len(sheetPart)-1], "''", "'")
	}
	ref.sheet = sheetPart
	if !hasCells {
		return ref, nil
	}

	startRef, endRef, isSpan := strings.Cut(cellPart, ":")
	startCol, startRow, err := parseCell(startRef)
	if err != nil {
		return a1Ref{}, err
	}
	endCol, endRow := startCol, startRow
	if isSpan {
		if endCol, endRow, err = parseCell(endRef); err != nil {
			return a1Ref{}, err
		}
	}

	if startCol > 0 {
		ref.startCol = startCol
	}
	if startRow > 0 {
		ref.startRow = startRow
	}
	ref.endCol, ref.endRow = endCol, endRow
	return ref, nil
}

func parseCell(s string) (int, int, error) {
	m := a1CellRe.FindStringSubmatch(strings.ReplaceAll(s, "$", ""))
	if m == nil || (m[1] == "" && m[2] == "") {
		return 0, 0, fmt.Errorf("unable to parse range: %s", s)
	}
	col := 0
	for _, ch := range strings.ToUpper(m[1]) {
		col = col*26 + int(ch-'A'+1)
	}
	row := 0
	if m[2] != "" {
		row, _ = strconv.Atoi(m[2])
	}
	return col, row, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, status, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
			"status":  status,
			"errors": []map[string]any{
				{"message": msg, "reason": strings.ToLower(status)},
			},
		},
	})
}
