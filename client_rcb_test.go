package mmsclient

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	rcbRef  = "IED/LLN0.RP.urcbA01"
	dsRef   = "IED/LLN0.Events"
	brcbRef = "IED/LLN0.BR.brcbA01"
)

var dsMembers = []string{
	"IED/GGIO1.SPCSO1.stVal[ST]",
	"IED/GGIO1.SPCSO1.q[ST]",
	"IED/GGIO1.AnIn1.mag.f[MX]",
}

func reportConn() *fakeConn {
	conn := newFakeConn()
	conn.dsMembers[dsRef] = dsMembers
	conn.dsValues[dsRef] = &MmsValue{Type: Structure, Value: []*MmsValue{
		boolValue(false),
		{Type: BitString, Value: BitStringValue{Size: 13}},
		{Type: Float, Value: float32(1.5)},
	}}
	conn.rcbs[rcbRef] = &ClientReportControlBlock{RptId: "urcbA", DatSet: "IED/LLN0$Old"}
	conn.rcbs[brcbRef] = &ClientReportControlBlock{RptId: "brcbA", Buffered: true}
	return conn
}

func TestTrgOps_Bits(t *testing.T) {
	ops := TrgOps{DataChange: true, QualityChange: true, Gi: true}
	assert.Equal(t, TRG_OPT_DATA_CHANGED|TRG_OPT_QUALITY_CHANGED|TRG_OPT_GI, ops.Bits())
	assert.Equal(t, ops, TrgOpsFromBits(ops.Bits()))
	assert.True(t, TrgOpsFromBits(TRG_OPT_TRANSIENT).Transient)

	flds := OptFlds{SequenceNumber: true, ReasonForInclusion: true, ConfigRevision: true}
	assert.Equal(t, 1|4|128, flds.Bits())
	assert.Equal(t, flds, OptFldsFromBits(flds.Bits()))
}

func TestSameDataSet(t *testing.T) {
	assert.True(t, sameDataSet("IED/LLN0$Events", "IED/LLN0.Events"))
	assert.False(t, sameDataSet("IED/LLN0$Events", "IED/LLN0$Other"))
}

func TestClient_EnableReporting(t *testing.T) {
	conn := reportConn()
	c, _ := newTestClient(t, conn)

	require.NoError(t, c.EnableReporting(rcbRef, dsRef))
	assert.Equal(t, []string{rcbRef}, c.Subscriptions())
	assert.NotNil(t, conn.handler(rcbRef))

	require.Len(t, conn.setRCBs, 1)
	call := conn.setRCBs[0]
	assert.Equal(t, RCB_ELEMENT_DATSET|RCB_ELEMENT_TRG_OPS|RCB_ELEMENT_RPT_ENA|RCB_ELEMENT_GI|RCB_ELEMENT_RESV, call.Elements)
	assert.Equal(t, "IED/LLN0$Events", call.RCB.DatSet)
	assert.True(t, call.RCB.Ena)
	assert.True(t, call.RCB.GI)
	assert.True(t, call.RCB.Resv)
	assert.Equal(t, TrgOps{DataChange: true, QualityChange: true, Gi: true}, call.RCB.TrgOps)

	evs := named(drain(c), EventReportingEnabled)
	require.Len(t, evs, 1)
	assert.Equal(t, rcbRef, evs[0].RcbRef)
	assert.Equal(t, dsRef, evs[0].DatasetRef)
	assert.Equal(t, "urcbA", evs[0].Data["rptId"])
	assert.Equal(t, dsMembers, evs[0].Data["members"])
}

func TestClient_EnableReporting_BufferedSkipsReservation(t *testing.T) {
	conn := reportConn()
	c, _ := newTestClient(t, conn)

	require.NoError(t, c.EnableReporting(brcbRef, dsRef))
	require.Len(t, conn.setRCBs, 1)
	assert.Zero(t, conn.setRCBs[0].Elements&RCB_ELEMENT_RESV)
	assert.False(t, conn.setRCBs[0].RCB.Resv)
}

func TestClient_EnableReporting_Twice(t *testing.T) {
	conn := reportConn()
	c, _ := newTestClient(t, conn)
	require.NoError(t, c.EnableReporting(rcbRef, dsRef))
	drain(c)

	err := c.EnableReporting(rcbRef, dsRef)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
	assert.True(t, IsKind(err, KindConfiguration))

	evs := drain(c)
	require.Len(t, evs, 1)
	assert.Equal(t, "Report already enabled for "+rcbRef, evs[0].Reason)
	assert.Len(t, conn.setRCBs, 1, "the existing subscription is left untouched")
	assert.NotNil(t, conn.handler(rcbRef))
}

func TestClient_EnableReporting_WriteFails(t *testing.T) {
	conn := reportConn()
	conn.setRCBErr = func(setRCBCall) error { return IED_ERROR_ACCESS_DENIED }
	c, _ := newTestClient(t, conn)

	err := c.EnableReporting(rcbRef, dsRef)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindEngine))
	assert.ErrorIs(t, err, IED_ERROR_ACCESS_DENIED)

	assert.Empty(t, c.Subscriptions())
	assert.Nil(t, conn.handler(rcbRef))
	assert.Equal(t, []string{rcbRef}, conn.uninstalls)

	evs := drain(c)
	require.Len(t, evs, 1)
	assert.Equal(t, TypeError, evs[0].Type)
	assert.Equal(t, "Failed to enable reporting for "+rcbRef+": Access denied", evs[0].Reason)
}

func TestClient_EnableReporting_MissingDataSet(t *testing.T) {
	conn := reportConn()
	c, _ := newTestClient(t, conn)

	err := c.EnableReporting(rcbRef, "IED/LLN0.Missing")
	require.Error(t, err)
	assert.Empty(t, conn.setRCBs)
	assert.Empty(t, c.Subscriptions())
	assert.Len(t, ofType(drain(c), TypeError), 1)
}

func TestClient_DisableReporting(t *testing.T) {
	conn := reportConn()
	c, _ := newTestClient(t, conn)
	require.NoError(t, c.EnableReporting(rcbRef, dsRef))
	drain(c)

	require.NoError(t, c.DisableReporting(rcbRef))
	require.Len(t, conn.setRCBs, 2)
	assert.Equal(t, RCB_ELEMENT_RPT_ENA, conn.setRCBs[1].Elements)
	assert.False(t, conn.setRCBs[1].RCB.Ena)
	assert.Empty(t, c.Subscriptions())
	assert.Nil(t, conn.handler(rcbRef))

	evs := drain(c)
	require.Len(t, evs, 1)
	assert.Equal(t, EventReportingDisabled, evs[0].Name)

	err := c.DisableReporting(rcbRef)
	assert.ErrorIs(t, err, ErrNotSubscribed)
	evs = drain(c)
	require.Len(t, evs, 1)
	assert.Equal(t, "No active report for "+rcbRef, evs[0].Reason)
}

func TestClient_DisableReporting_WriteFails(t *testing.T) {
	conn := reportConn()
	conn.setRCBErr = func(call setRCBCall) error {
		if !call.RCB.Ena {
			return errors.New("link down")
		}
		return nil
	}
	c, _ := newTestClient(t, conn)
	require.NoError(t, c.EnableReporting(rcbRef, dsRef))
	drain(c)

	err := c.DisableReporting(rcbRef)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindEngine))
	assert.Empty(t, c.Subscriptions(), "local state is cleared anyway")

	evs := drain(c)
	require.Len(t, evs, 2)
	assert.Equal(t, "Failed to disable reporting for "+rcbRef+": link down", evs[0].Reason)
	assert.Equal(t, EventReportingDisabled, evs[1].Name)
}

func TestClient_HandleReport(t *testing.T) {
	conn := reportConn()
	c, _ := newTestClient(t, conn)
	require.NoError(t, c.EnableReporting(rcbRef, dsRef))
	drain(c)

	conn.handler(rcbRef)(ClientReport{
		RcbRef:       rcbRef,
		RptID:        "urcbA",
		HasTimestamp: true,
		Timestamp:    1700000000000,
		Reasons:      []ReasonForInclusion{IEC61850_REASON_DATA_CHANGE, IEC61850_REASON_NOT_INCLUDED, IEC61850_REASON_GI},
		Values: &MmsValue{Type: Structure, Value: []*MmsValue{
			boolValue(true),
			nil,
			{Type: Float, Value: float32(2.5)},
		}},
	})

	evs := drain(c)
	require.Len(t, evs, 1)
	ev := evs[0]
	assert.Equal(t, EventReport, ev.Name)
	assert.Equal(t, TypeData, ev.Type)
	assert.Equal(t, rcbRef, ev.RcbRef)
	assert.Equal(t, dsRef, ev.DatasetRef)
	assert.Equal(t, "urcbA", ev.Data["rptId"])
	assert.Equal(t, "2023-11-14 22:13:20.000", ev.Data["timestamp"])
	assert.Equal(t, []ReasonForInclusion{IEC61850_REASON_DATA_CHANGE, IEC61850_REASON_NOT_INCLUDED, IEC61850_REASON_GI},
		ev.Data["reasonsForInclusion"])
	assert.Equal(t, []ReportValue{
		{Index: 0, Member: dsMembers[0], Reason: IEC61850_REASON_DATA_CHANGE, Value: BooleanNode{Value: true}},
		{Index: 2, Member: dsMembers[2], Reason: IEC61850_REASON_GI, Value: FloatNode{Value: 2.5}},
	}, ev.Data["values"])
}

func TestClient_HandleReport_Unknown(t *testing.T) {
	conn := reportConn()
	c, _ := newTestClient(t, conn)
	require.NoError(t, c.EnableReporting(rcbRef, dsRef))
	drain(c)

	c.handleReport(ClientReport{RcbRef: "IED/LLN0.RP.other", Reasons: []ReasonForInclusion{IEC61850_REASON_GI}})
	assert.Empty(t, drain(c))
}

func TestClient_HandleReport_MissingValues(t *testing.T) {
	conn := reportConn()
	c, _ := newTestClient(t, conn)
	require.NoError(t, c.EnableReporting(rcbRef, dsRef))
	drain(c)

	conn.handler(rcbRef)(ClientReport{RcbRef: rcbRef, Reasons: []ReasonForInclusion{IEC61850_REASON_GI}})
	evs := drain(c)
	require.Len(t, evs, 1)
	values := evs[0].Data["values"].([]ReportValue)
	require.Len(t, values, 1)
	assert.False(t, values[0].Value.Valid())
	assert.NotContains(t, evs[0].Data, "timestamp")
}

func TestClient_Close_DisablesReports(t *testing.T) {
	conn := reportConn()
	c, _ := newTestClient(t, conn)
	require.NoError(t, c.EnableReporting(rcbRef, dsRef))
	require.NoError(t, c.EnableReporting(brcbRef, dsRef))

	require.NoError(t, c.Close())
	assert.Empty(t, c.Subscriptions())
	assert.ElementsMatch(t, []string{rcbRef, brcbRef}, conn.uninstalls)
	require.Len(t, conn.setRCBs, 4)
	for _, call := range conn.setRCBs[2:] {
		assert.False(t, call.RCB.Ena)
		assert.Equal(t, RCB_ELEMENT_RPT_ENA, call.Elements)
	}
}
