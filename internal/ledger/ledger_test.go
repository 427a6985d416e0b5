package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordBuildAndQuery(t *testing.T) {
	l, err := Open(":memory:")
	require.NoError(t, err, "Open")
	defer l.Close()

	err = l.RecordBuild(BuildRecord{
		StartedAt:             1000,
		DocumentCount:         42,
		DroppedDuplicateCount: 3,
		ElapsedNS:             5_000_000,
	})
	require.NoError(t, err, "RecordBuild")

	top := int64(7)
	err = l.RecordQuery(QueryRecord{
		QueryText:      "hello world",
		TermCount:      2,
		CandidateCount: 10,
		TopDocID:       &top,
		ElapsedNS:      250_000,
	})
	require.NoError(t, err, "RecordQuery")

	builds, err := l.BuildCount()
	require.NoError(t, err, "BuildCount")
	require.Equal(t, 1, builds)

	queries, err := l.QueryCount()
	require.NoError(t, err, "QueryCount")
	require.Equal(t, 1, queries)
}

func TestRecordQueryWithoutTopDoc(t *testing.T) {
	l, err := Open(":memory:")
	require.NoError(t, err, "Open")
	defer l.Close()

	err = l.RecordQuery(QueryRecord{
		QueryText:      "no results",
		TermCount:      2,
		CandidateCount: 0,
		TopDocID:       nil,
		ElapsedNS:      10_000,
	})
	require.NoError(t, err, "RecordQuery with nil TopDocID")
}
