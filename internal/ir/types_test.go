package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusEncodingMatchesStoredIntegers(t *testing.T) {
	assert.Equal(t, 0, int(StatusNormal))
	assert.Equal(t, 1, int(StatusUndone))
	assert.Equal(t, 2, int(StatusRedone))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "normal", StatusNormal.String())
	assert.Equal(t, "undone", StatusUndone.String())
	assert.Equal(t, "redone", StatusRedone.String())
	assert.Equal(t, "status(7)", Status(7).String())
	assert.False(t, Status(7).Valid())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" Undone ")
	require.NoError(t, err)
	assert.Equal(t, StatusUndone, s)

	_, err = ParseStatus("pending")
	assert.Error(t, err)
}

func TestParseOpType(t *testing.T) {
	tests := []struct {
		in   string
		want OpType
	}{
		{"insert", OpInsert},
		{"UPDATE", OpUpdate},
		{" Delete ", OpDelete},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOpType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseOpType("upsert")
	assert.Error(t, err)
}

func TestLogEntryJSONFieldNaming(t *testing.T) {
	entry := LogEntry{
		ID:         3,
		ModelID:    "m1",
		TableName:  "t1",
		OpType:     OpInsert,
		NewData:    Text(`{"id":1}`),
		Status:     StatusRedone,
		OperatorAt: 1700000000000,
	}
	data, err := json.Marshal(entry)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"model_id":"m1"`)
	assert.Contains(t, string(data), `"table_name":"t1"`)
	assert.Contains(t, string(data), `"op_type":"insert"`)
	assert.Contains(t, string(data), `"old_data":null`)
	assert.Contains(t, string(data), `"new_data":"{\"id\":1}"`)
	assert.Contains(t, string(data), `"status":"redone"`)
	assert.NotContains(t, string(data), `"modelId"`)

	var back LogEntry
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, entry, back)
}

func TestDraftNormalize_LeavesIdentifiersAlone(t *testing.T) {
	d := Draft{ModelID: "m1 ", TableName: " t1", OpType: " UPDATE"}.Normalize()
	assert.Equal(t, "m1 ", d.ModelID)
	assert.Equal(t, " t1", d.TableName)
	assert.Equal(t, OpUpdate, d.OpType)
}

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		name  string
		draft Draft
		field string
	}{
		{"missing model", Draft{TableName: "t", OpType: OpUpdate, OldData: Text("a"), NewData: Text("b")}, "model_id"},
		{"missing table", Draft{ModelID: "m", OpType: OpUpdate, OldData: Text("a"), NewData: Text("b")}, "table_name"},
		{"bad op", Draft{ModelID: "m", TableName: "t", OpType: "merge"}, "op_type"},
		{"insert without new", Draft{ModelID: "m", TableName: "t", OpType: OpInsert}, "new_data"},
		{"delete without old", Draft{ModelID: "m", TableName: "t", OpType: OpDelete}, "old_data"},
		{"update without old", Draft{ModelID: "m", TableName: "t", OpType: OpUpdate, NewData: Text("b")}, "old_data"},
		{"update without new", Draft{ModelID: "m", TableName: "t", OpType: OpUpdate, OldData: Text("a")}, "new_data"},
		{"negative time", Draft{ModelID: "m", TableName: "t", OpType: OpInsert, NewData: Text("b"), OperatorAt: -1}, "operator_at"},
		{"padded model", Draft{ModelID: "m1 ", TableName: "t", OpType: OpInsert, NewData: Text("b")}, "model_id"},
		{"tab before model", Draft{ModelID: "\tm1", TableName: "t", OpType: OpInsert, NewData: Text("b")}, "model_id"},
		{"blank model", Draft{ModelID: "   ", TableName: "t", OpType: OpInsert, NewData: Text("b")}, "model_id"},
		// "e" followed by a combining acute is the decomposed form of U+00E9
		{"decomposed model", Draft{ModelID: "mode\u0301l", TableName: "t", OpType: OpInsert, NewData: Text("b")}, "model_id"},
		{"padded table", Draft{ModelID: "m", TableName: "t ", OpType: OpInsert, NewData: Text("b")}, "table_name"},
		{"binary old", Draft{ModelID: "m", TableName: "t", OpType: OpDelete, OldData: Payload{0xff, 0xfe}}, "old_data"},
		{"binary new", Draft{ModelID: "m", TableName: "t", OpType: OpInsert, NewData: Payload("a\xc3")}, "new_data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	valid := []Draft{
		{ModelID: "m", TableName: "t", OpType: OpInsert, NewData: Text("n")},
		{ModelID: "m", TableName: "t", OpType: OpDelete, OldData: Text("o")},
		{ModelID: "m", TableName: "t", OpType: OpUpdate, OldData: Text(""), NewData: Text("")},
		{ModelID: "mod\u00e9l", TableName: "t", OpType: OpInsert, NewData: Text("caf\u00e9")},
		{ModelID: "m 1", TableName: "t", OpType: OpInsert, NewData: Text("n")},
	}
	for _, d := range valid {
		assert.NoError(t, d.Validate())
	}
}
