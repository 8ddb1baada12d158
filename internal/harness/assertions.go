package harness

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"cosmossdk.io/math"

	"github.com/roach88/multivault/internal/multivault"
	"github.com/roach88/multivault/internal/store"
	"github.com/roach88/multivault/internal/term"
)

// validIdentifier matches valid SQL identifiers (table/column names).
// Only allows alphanumeric and underscore, must start with letter or underscore.
// This prevents SQL injection via identifier interpolation.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEntry // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, entry := range e.Trace {
			switch entry.Type {
			case TraceInvocation:
				fmt.Fprintf(&buf, "  [%d] %s %v\n", entry.Seq, entry.Action, entry.Args)
			case TraceEvent:
				fmt.Fprintf(&buf, "  [%d]   %s\n", entry.Seq, entry.Kind)
			case TraceCompletion:
				fmt.Fprintf(&buf, "  [%d]   -> %s\n", entry.Seq, entry.Case)
			}
		}
	}

	return buf.String()
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Ctx    context.Context
	Store  *store.Store
	Engine *multivault.Engine
	Names  *resolver
}

func (c *AssertionContext) names() *resolver {
	if c == nil || c.Names == nil {
		return &resolver{terms: map[string]term.ID{}}
	}
	return c.Names
}

// assertEventContains checks that a notification of the given kind with
// matching attributes (subset match) was published.
func assertEventContains(trace []TraceEntry, assertion Assertion, names *resolver) error {
	for _, entry := range trace {
		if entry.Type != TraceEvent || entry.Kind != assertion.Kind {
			continue
		}
		if matchAttrs(entry.Attrs, assertion.Attrs, names) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertEventContains,
		Expected: fmt.Sprintf("%s with attrs %v", assertion.Kind, assertion.Attrs),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertEventOrder checks that the kinds appear as a subsequence of the
// published notifications. Intervening notifications are allowed and a kind
// may repeat.
func assertEventOrder(trace []TraceEntry, assertion Assertion) error {
	next := 0
	for _, entry := range trace {
		if next == len(assertion.Kinds) {
			break
		}
		if entry.Type == TraceEvent && entry.Kind == assertion.Kinds[next] {
			next++
		}
	}
	if next == len(assertion.Kinds) {
		return nil
	}

	return &AssertionError{
		Type:     AssertEventOrder,
		Expected: fmt.Sprintf("notifications in order: %v", assertion.Kinds),
		Actual:   fmt.Sprintf("no %s after %v", assertion.Kinds[next], assertion.Kinds[:next]),
		Trace:    trace,
	}
}

// assertEventCount checks the kind appears exactly the specified number of times.
func assertEventCount(trace []TraceEntry, assertion Assertion) error {
	count := 0
	for _, entry := range trace {
		if entry.Type == TraceEvent && entry.Kind == assertion.Kind {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Kind),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertFinalState checks that exactly one ledger row matches the where
// clause and that it holds the expected values (subset match). Term names
// and account labels in where and expect resolve to their stored hex form.
//
// Security: Table and column names are validated against a whitelist pattern
// to prevent SQL injection via identifier interpolation.
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion, names *resolver) error {
	if assertion.Table == "" {
		return fmt.Errorf("final_state assertion requires table name")
	}

	// Validate table name to prevent SQL injection (identifiers can't be parameterized)
	if !validIdentifier.MatchString(assertion.Table) {
		return fmt.Errorf("invalid table name %q: must match pattern %s", assertion.Table, validIdentifier.String())
	}

	where := make(map[string]interface{}, len(assertion.Where))
	for k, v := range assertion.Where {
		where[k] = names.canonical(k, v)
	}

	whereSQL, whereArgs, err := buildWhereClause(where)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("SELECT * FROM %s", assertion.Table)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	rows, err := st.DB().QueryContext(ctx, query, whereArgs...)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}

	if !rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "row not found",
		}
	}

	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return fmt.Errorf("scan row: %w", err)
	}

	// Check for multiple matching rows (would indicate ambiguous assertion)
	if rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	actualRow := make(map[string]interface{}, len(columns))
	for i, col := range columns {
		actualRow[col] = values[i]
	}

	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		expectedValue := assertion.Expect[key]
		actualValue, exists := actualRow[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in result columns: %v", key, columns),
			}
		}
		if !names.matches(key, expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s = %v", assertion.Table, key, expectedValue),
				Actual:   fmt.Sprintf("%s.%s = %s", assertion.Table, key, valueString(actualValue)),
			}
		}
	}

	return nil
}

// assertSolvent checks that the custody balance equals everything the
// ledger owes out of it: vault assets on every curve, unswept protocol fees
// and unclaimed atom wallet fees.
func assertSolvent(ctx context.Context, actx *AssertionContext) error {
	owed := math.ZeroInt()
	for _, q := range []string{
		"SELECT total_assets FROM vaults",
		"SELECT accrued FROM protocol_fees WHERE swept = 0",
		"SELECT accrued FROM atom_wallet_fees",
	} {
		sum, err := sumAmounts(ctx, actx.Store, q)
		if err != nil {
			return err
		}
		owed = owed.Add(sum)
	}

	custody, err := actx.Engine.BalanceOf(ctx, term.CustodyAddress)
	if err != nil {
		return err
	}
	if !custody.Equal(owed) {
		return &AssertionError{
			Type:     AssertSolvent,
			Expected: fmt.Sprintf("custody balance %s", owed),
			Actual:   fmt.Sprintf("custody balance %s", custody),
		}
	}
	return nil
}

func sumAmounts(ctx context.Context, st *store.Store, query string) (math.Int, error) {
	rows, err := st.DB().QueryContext(ctx, query)
	if err != nil {
		return math.Int{}, fmt.Errorf("sum amounts: %w", err)
	}
	defer rows.Close()

	sum := math.ZeroInt()
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return math.Int{}, fmt.Errorf("sum amounts: %w", err)
		}
		v, ok := math.NewIntFromString(raw)
		if !ok {
			return math.Int{}, fmt.Errorf("sum amounts: invalid stored amount %q", raw)
		}
		sum = sum.Add(v)
	}
	return sum, rows.Err()
}

// buildWhereClause constructs parameterized WHERE clause from assertion.Where.
// Returns SQL fragment, arguments slice, and error. Keys are sorted for determinism.
//
// Security: Column names are validated against a whitelist pattern to prevent
// SQL injection via identifier interpolation.
func buildWhereClause(where map[string]interface{}) (string, []interface{}, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys))

	for _, key := range keys {
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause: must match pattern %s", key, validIdentifier.String())
		}
		clauses = append(clauses, fmt.Sprintf("%s = ?", key))
		args = append(args, toSQLValue(where[key]))
	}

	return strings.Join(clauses, " AND "), args, nil
}

// toSQLValue converts an interface{} value to a SQL-compatible value.
func toSQLValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string, int, int64, bool:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]interface{}) string {
	if len(where) == 0 {
		return "(no conditions)"
	}

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

// matchAttrs checks if actual attributes contain all expected ones (subset
// match). Extra keys in actual are ignored.
func matchAttrs(actual, expected map[string]interface{}, names *resolver) bool {
	for key, expectedVal := range expected {
		actualVal, exists := actual[key]
		if !exists {
			return false
		}
		if !names.matches(key, expectedVal, actualVal) {
			return false
		}
	}
	return true
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides ledger access for final_state and solvent.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	names := actx.names()

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertEventContains:
			err = assertEventContains(result.Trace, assertion, names)
		case AssertEventOrder:
			err = assertEventOrder(result.Trace, assertion)
		case AssertEventCount:
			err = assertEventCount(result.Trace, assertion)
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires database context", i)
			} else {
				err = assertFinalState(actx.Ctx, actx.Store, assertion, names)
			}
		case AssertSolvent:
			if actx == nil || actx.Store == nil || actx.Engine == nil {
				err = fmt.Errorf("assertion[%d]: solvent requires engine context", i)
			} else {
				err = assertSolvent(actx.Ctx, actx)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			failures = append(failures, err.Error())
		}
	}

	return failures
}
