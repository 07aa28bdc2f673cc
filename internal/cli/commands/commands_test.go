package commands

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapql/internal/cli/output"
	"github.com/leapstack-labs/leapql/internal/config"
	"github.com/leapstack-labs/leapql/internal/testutil"
	"github.com/leapstack-labs/leapql/pkg/adapter"
	"github.com/leapstack-labs/leapql/pkg/compiler"
	"github.com/leapstack-labs/leapql/pkg/dialect"
	"github.com/leapstack-labs/leapql/pkg/exec"
	"github.com/leapstack-labs/leapql/pkg/plancache"

	_ "github.com/leapstack-labs/leapql/pkg/adapters/sqlite"
	_ "github.com/leapstack-labs/leapql/pkg/dialects/ansi"
	_ "github.com/leapstack-labs/leapql/pkg/dialects/postgres"
	_ "github.com/leapstack-labs/leapql/pkg/dialects/sqlite"
)

func testCompiler(t *testing.T) *compiler.Compiler {
	t.Helper()
	d, err := dialect.Lookup("sqlite")
	require.NoError(t, err)
	c, err := compiler.New(testutil.NewDomainModel(t), d, testutil.NewTestLogger(t))
	require.NoError(t, err)
	return c
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    exec.Params
		wantErr bool
	}{
		{"typed values", []string{"id=100", "ratio=0.5", "flag=true", "name=Bob"},
			exec.Params{"id": int64(100), "ratio": 0.5, "flag": true, "name": "Bob"}, false},
		{"ordinal", []string{"1=x"}, exec.Params{"1": "x"}, false},
		{"prefixed names", []string{":id=1", "?2=y"}, exec.Params{"id": int64(1), "2": "y"}, false},
		{"value with equals", []string{"expr=a=b"}, exec.Params{"expr": "a=b"}, false},
		{"empty value", []string{"s="}, exec.Params{"s": ""}, false},
		{"missing equals", []string{"id"}, nil, true},
		{"missing name", []string{"=1"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.pairs)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatValue(t *testing.T) {
	var nilRecord *exec.EntityRecord
	tests := []struct {
		name string
		v    any
		want string
	}{
		{"nil", nil, "NULL"},
		{"nil record", nilRecord, "NULL"},
		{"scalar", int64(3), "3"},
		{"list", []any{int64(1), "a", nil}, "[1, a, NULL]"},
		{"map sorted", map[string]any{"b": 2, "a": 1}, "{a=1, b=2}"},
		{"record", &exec.EntityRecord{Entity: "Other", ID: int64(1), Attributes: map[string]any{"label": "one"}}, "Other#1{label=one}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.v))
		})
	}
}

func TestReadQueries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.hql")
	require.NoError(t, os.WriteFile(path, []byte("select s.basic from Something s;\n"), 0600))

	inputs, err := readQueries(" select 1 from Other o ; ", []string{path})
	require.NoError(t, err)
	assert.Equal(t, []queryInput{
		{Name: "query", Text: "select 1 from Other o"},
		{Name: path, Text: "select s.basic from Something s"},
	}, inputs)

	_, err = readQueries("", nil)
	require.EqualError(t, err, "no query given (use -q or -f)")

	_, err = readQueries("", []string{filepath.Join(dir, "missing.hql")})
	require.Error(t, err)
}

func TestCompileAll(t *testing.T) {
	c := testCompiler(t)
	inputs := []queryInput{
		{Name: "a", Text: "select s.basic from Something s"},
		{Name: "b", Text: "select o.label from Other o"},
		{Name: "c", Text: "select e.name from Entity e"},
	}

	results, err := compileAll(context.Background(), c, inputs, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "select s1_0.basic from something s1_0", results[0].SQL)
	assert.Equal(t, "select o1_0.label from other o1_0", results[1].SQL)
	assert.Equal(t, "select e1_0.name from entity e1_0", results[2].SQL)

	inputs = append(inputs, queryInput{Name: "bad", Text: "select x.y from Nope x"})
	_, err = compileAll(context.Background(), c, inputs, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: ")
}

func TestCompileAll_SkipsAfterFailure(t *testing.T) {
	c := testCompiler(t)
	inputs := []queryInput{
		{Name: "first", Text: "select x.y from Nope x"},
		{Name: "second", Text: "select z.y from Nope z"},
		{Name: "third", Text: "select s.basic from Something s"},
	}

	// With one worker the later inputs start only after the first failed.
	results, err := compileAll(context.Background(), c, inputs, 1)
	require.Error(t, err)
	assert.Nil(t, results)
	assert.True(t, strings.HasPrefix(err.Error(), "first: "), err.Error())
	assert.NotErrorIs(t, err, context.Canceled)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = compileAll(ctx, c, inputs[2:], 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDescribe(t *testing.T) {
	c := testCompiler(t)
	res, err := c.Compile("select s, new map(s.basic as b) from Something s join fetch s.entity e where s.basic = :b")
	require.NoError(t, err)

	v := describe("q", res)
	require.Len(t, v.Parameters, 1)
	assert.Equal(t, 1, v.Parameters[0].Placeholder)
	assert.Equal(t, ":b", v.Parameters[0].Label)

	require.Len(t, v.Returns, 2)
	assert.Equal(t, "entity", v.Returns[0].Kind)
	assert.Equal(t, "Something", v.Returns[0].Entity)
	require.Len(t, v.Returns[0].Fetches, 1)
	assert.Equal(t, "entity", v.Returns[0].Fetches[0].Attribute)
	assert.Contains(t, v.Returns[0].summary(), "fetch entity(Entity")

	assert.Equal(t, "instantiation", v.Returns[1].Kind)
	assert.Equal(t, "map", v.Returns[1].Target)
	assert.Equal(t, "b", v.Returns[1].Args[0].Alias)
	assert.True(t, strings.HasPrefix(v.Returns[1].summary(), "new map(["), v.Returns[1].summary())
}

type replHarness struct {
	session *replSession
	out     *bytes.Buffer
	errOut  *bytes.Buffer
}

func newHarness(t *testing.T) *replHarness {
	t.Helper()
	cache, err := plancache.New(testCompiler(t), 8)
	require.NoError(t, err)

	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	r := output.NewRenderer(out, errOut, output.ModeText)
	cfg := &config.Config{Dialect: "sqlite", Output: config.OutputText, CacheSize: 8}
	return &replHarness{
		session: newREPLSession(cache, r, cfg, testutil.NewTestLogger(t)),
		out:     out,
		errOut:  errOut,
	}
}

func TestREPL_CompilesStatements(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	assert.False(t, h.session.HandleLine(ctx, "select s.basic"))
	assert.True(t, h.session.Pending())
	assert.Empty(t, h.out.String())

	assert.False(t, h.session.HandleLine(ctx, "from Something s;"))
	assert.False(t, h.session.Pending())
	assert.Contains(t, h.out.String(), "select s1_0.basic from something s1_0")
	assert.Contains(t, h.out.String(), "Returns")

	h.session.HandleLine(ctx, "select s.basic from Something s;")
	h.out.Reset()
	h.session.HandleLine(ctx, ".stats")
	assert.Equal(t, "plans: 1, hits: 1, misses: 1\n", h.out.String())
}

func TestREPL_DotCommands(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.session.HandleLine(ctx, ".help")
	assert.Contains(t, h.out.String(), ".param name=value")

	h.out.Reset()
	h.session.HandleLine(ctx, ".param id=5 name=x")
	h.session.HandleLine(ctx, ".param")
	assert.Equal(t, "id = 5\nname = x\n", h.out.String())

	h.out.Reset()
	h.session.HandleLine(ctx, ".clear")
	h.session.HandleLine(ctx, ".param")
	assert.Empty(t, h.out.String())

	h.session.HandleLine(ctx, ".param nope")
	assert.Contains(t, h.errOut.String(), "invalid parameter")

	h.session.HandleLine(ctx, ".bogus")
	assert.Contains(t, h.errOut.String(), "unknown command .bogus")

	assert.True(t, h.session.HandleLine(ctx, ".quit"))
	assert.True(t, h.session.HandleLine(ctx, ".exit"))
}

func TestREPL_ReportsErrors(t *testing.T) {
	h := newHarness(t)
	h.session.HandleLine(context.Background(), "select x from Nope x;")
	assert.Contains(t, h.errOut.String(), "Error:")
	assert.False(t, h.session.Pending())
}

func TestREPL_Execute(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	connects := 0
	h.session.connect = func(context.Context) (exec.Querier, io.Closer, error) {
		connects++
		return &adapter.BaseSQLAdapter{DB: db}, db, nil
	}

	mock.ExpectQuery("select s1_0.basic from something s1_0 where s1_0.id=?").
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"basic"}).AddRow(int64(5)))
	mock.ExpectQuery("select s1_0.basic from something s1_0 where s1_0.id=?").
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"basic"}))
	mock.ExpectClose()

	h.session.HandleLine(ctx, ".run")
	assert.Contains(t, h.out.String(), "Execution on")
	h.session.HandleLine(ctx, ".param id=100")

	h.out.Reset()
	h.session.HandleLine(ctx, "select s.basic from Something s where s.id = :id;")
	assert.Contains(t, h.out.String(), "(1 rows)")
	assert.Contains(t, h.out.String(), "5")

	h.out.Reset()
	h.session.HandleLine(ctx, "select s.basic from Something s where s.id = :id;")
	assert.Contains(t, h.out.String(), "(0 rows)")
	assert.Equal(t, 1, connects, "the connection is reused")

	h.session.Close()
	require.NoError(t, mock.ExpectationsWereMet())
}
