package sqm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapql/internal/testutil"
	"github.com/leapstack-labs/leapql/pkg/hql"
	"github.com/leapstack-labs/leapql/pkg/sqm"
)

func analyze(t *testing.T, query string) (*sqm.Context, *sqm.SelectStatement, error) {
	t.Helper()
	stmt, err := hql.Parse(query)
	require.NoError(t, err, "parse %q", query)
	return sqm.Analyze(stmt, testutil.NewDomainModel(t), testutil.NewTestLogger(t))
}

func mustAnalyze(t *testing.T, query string) (*sqm.Context, *sqm.SelectStatement) {
	t.Helper()
	c, tree, err := analyze(t, query)
	require.NoError(t, err, "analyze %q", query)
	return c, tree
}

func selection(t *testing.T, tree *sqm.SelectStatement, i int) sqm.Expression {
	t.Helper()
	require.Greater(t, len(tree.Query.Selections), i)
	return tree.Query.Selections[i].Expr
}
