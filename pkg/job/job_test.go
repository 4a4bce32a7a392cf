package job

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BartManX/miningcore/pkg/cointemplate"
	"github.com/BartManX/miningcore/pkg/hashalgo"
	"github.com/BartManX/miningcore/pkg/reward"
)

const zeroHash64 = "0000000000000000000000000000000000000000000000000000000000000000"

// easyTarget is large enough that every header hash this package's tests
// produce qualifies as a block candidate.
const easyTarget = "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"

// hardTarget is small enough that no realistic header hash meets it, so
// shares against it fall back to the worker-difficulty comparison.
const hardTarget = "0000000000000000000000000000000000000000000000000000000000001"

func buildTestJob(t *testing.T, targetHex string) *Job {
	t.Helper()

	tmplJSON := fmt.Sprintf(`{
		"height": 100,
		"previousblockhash": "%s",
		"version": 1,
		"bits": "1d00ffff",
		"target": "%s",
		"curtime": 1700000000,
		"coinbasevalue": 5000000000,
		"transactions": []
	}`, strings.Repeat("00", 32), targetHex)

	var tmpl cointemplate.BlockTemplate
	require.NoError(t, json.Unmarshal([]byte(tmplJSON), &tmpl))

	coin := &cointemplate.CoinTemplate{CoinbaseTxVersion: 1}

	hasher, err := hashalgo.Lookup("sha256d")
	require.NoError(t, err)

	cfg := Config{
		PoolDestination: []byte{0x51},
		PlaceholderLen:  4,
		ShareMultiplier: 1,
		CoinbaseHasher:  hasher,
		HeaderHasher:    hasher,
		BlockHasher:     hasher,
		Resolve: func(target reward.Target) ([]byte, error) {
			return []byte{0x51}, nil
		},
		Clock: func() time.Time { return time.Unix(1700000000, 0) },
	}

	j, err := Init(&tmpl, "job-1", coin, cfg)
	require.NoError(t, err)
	return j
}

func TestInitRejectsEmptyJobID(t *testing.T) {
	_, err := Init(&cointemplate.BlockTemplate{}, "", &cointemplate.CoinTemplate{}, Config{})
	assert.Error(t, err)
}

func TestInitRejectsNilTemplateOrCoin(t *testing.T) {
	_, err := Init(nil, "job-1", &cointemplate.CoinTemplate{}, Config{})
	assert.Error(t, err)

	_, err = Init(&cointemplate.BlockTemplate{}, "job-1", nil, Config{})
	assert.Error(t, err)
}

func TestStratumParamsReflectsIsNew(t *testing.T) {
	j := buildTestJob(t, easyTarget)
	assert.True(t, j.StratumParams(true).IsNew)
	assert.False(t, j.StratumParams(false).IsNew)
	assert.Equal(t, "job-1", j.StratumParams(true).JobID)
	assert.Len(t, j.StratumParams(true).PreviousBlockHashReversed, 64)
}

func TestProcessShareAcceptsBlockCandidateOnEasyTarget(t *testing.T) {
	j := buildTestJob(t, easyTarget)
	worker := &WorkerContext{ExtraNonce1: "aabb", Difficulty: 1}

	share, blockHex, err := j.ProcessShare(worker, "ccdd", "6553f100", "00000000", "")
	require.NoError(t, err)
	assert.True(t, share.IsBlockCandidate)
	assert.NotEmpty(t, blockHex)
	assert.NotEmpty(t, share.BlockHash)
}

func TestProcessShareRejectsDuplicateSubmission(t *testing.T) {
	j := buildTestJob(t, easyTarget)
	worker := &WorkerContext{ExtraNonce1: "aabb", Difficulty: 1}

	_, _, err := j.ProcessShare(worker, "ccdd", "6553f100", "00000000", "")
	require.NoError(t, err)

	_, _, err = j.ProcessShare(worker, "ccdd", "6553f100", "00000000", "")
	require.Error(t, err)
	se, ok := err.(*ShareError)
	require.True(t, ok)
	assert.Equal(t, ErrDuplicateShare, se.Kind)
}

func TestProcessShareRejectsLowDifficultyOnHardTarget(t *testing.T) {
	j := buildTestJob(t, hardTarget)
	worker := &WorkerContext{ExtraNonce1: "aabb", Difficulty: 1}

	_, _, err := j.ProcessShare(worker, "ccdd", "6553f100", "00000000", "")
	require.Error(t, err)
	se, ok := err.(*ShareError)
	require.True(t, ok)
	assert.Equal(t, ErrLowDifficultyShare, se.Kind)
}

func TestProcessShareRejectsBadNTimeLength(t *testing.T) {
	j := buildTestJob(t, easyTarget)
	worker := &WorkerContext{ExtraNonce1: "aabb", Difficulty: 1}

	_, _, err := j.ProcessShare(worker, "ccdd", "1234", "00000000", "")
	require.Error(t, err)
	se, ok := err.(*ShareError)
	require.True(t, ok)
	assert.Equal(t, ErrOther, se.Kind)
}

func TestProcessShareRejectsNTimeOutOfRange(t *testing.T) {
	j := buildTestJob(t, easyTarget)
	worker := &WorkerContext{ExtraNonce1: "aabb", Difficulty: 1}

	_, _, err := j.ProcessShare(worker, "ccdd", "00000001", "00000000", "")
	require.Error(t, err)
	se, ok := err.(*ShareError)
	require.True(t, ok)
	assert.Equal(t, ErrOther, se.Kind)
}

func TestProcessShareRejectsBadNonceLength(t *testing.T) {
	j := buildTestJob(t, easyTarget)
	worker := &WorkerContext{ExtraNonce1: "aabb", Difficulty: 1}

	_, _, err := j.ProcessShare(worker, "ccdd", "6553f100", "0000", "")
	require.Error(t, err)
	se, ok := err.(*ShareError)
	require.True(t, ok)
	assert.Equal(t, ErrOther, se.Kind)
}

func TestProcessShareRejectsVersionRollingMaskViolation(t *testing.T) {
	j := buildTestJob(t, easyTarget)
	mask := uint32(0x1fffe000)
	worker := &WorkerContext{ExtraNonce1: "aabb", Difficulty: 1, VersionRollingMask: &mask}

	_, _, err := j.ProcessShare(worker, "ccdd", "6553f100", "00000000", "ffffffff")
	require.Error(t, err)
	se, ok := err.(*ShareError)
	require.True(t, ok)
	assert.Equal(t, ErrOther, se.Kind)
}

func TestProcessShareAllowsVersionRollingWithinMask(t *testing.T) {
	j := buildTestJob(t, easyTarget)
	mask := uint32(0x1fffe000)
	worker := &WorkerContext{ExtraNonce1: "aabb", Difficulty: 1, VersionRollingMask: &mask}

	_, _, err := j.ProcessShare(worker, "ccdd", "6553f100", "00000000", "00002000")
	assert.NoError(t, err)
}
