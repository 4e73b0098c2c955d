package mmsclient

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const switchRef = "IED/GGIO1.SPCSO1"

// controlConn serves ctlModel and stVal for switchRef.
func controlConn(model int32, control ControlObject) *fakeConn {
	conn := newFakeConn()
	conn.control = control
	conn.readFn = func(ref string, fc FC) (*MmsValue, error) {
		switch ref {
		case switchRef + ".ctlModel":
			return intValue(model), nil
		case switchRef + ".stVal":
			return boolValue(true), nil
		}
		return nil, IED_ERROR_OBJECT_DOES_NOT_EXIST
	}
	return conn
}

func newFakeControl() *fakeControl {
	m := &fakeControl{}
	m.On("SetOrigin", "test", DefaultOriginCategory).Return()
	m.On("Destroy").Return()
	return m
}

func TestClient_Control_StatusOnly(t *testing.T) {
	co := newFakeControl()
	conn := controlConn(0, co)
	c, _ := newTestClient(t, conn)

	res, err := c.Control(switchRef, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrControlBlocked)
	assert.True(t, IsKind(err, KindControl))
	assert.Equal(t, CONTROL_MODEL_STATUS_ONLY, res.Model)
	assert.False(t, res.Operated)

	evs := drain(c)
	require.Len(t, evs, 1)
	assert.Equal(t, TypeError, evs[0].Type)
	assert.Equal(t, "Control blocked for IED/GGIO1.SPCSO1: status-only", evs[0].Reason)

	co.AssertNotCalled(t, "Select")
	co.AssertNotCalled(t, "Operate", mock.Anything, mock.Anything)
	assert.Equal(t, []readCall{{Ref: switchRef + ".ctlModel", FC: CF}}, conn.readCalls())
}

func TestClient_Control_DirectNormal(t *testing.T) {
	co := newFakeControl()
	co.On("Operate", boolValue(true), uint64(0)).Return(nil).Once()
	conn := controlConn(1, co)
	c, _ := newTestClient(t, conn)

	res, err := c.Control(switchRef, "true")
	require.NoError(t, err)
	assert.True(t, res.Operated)
	assert.Equal(t, TerminationNone, res.Termination)
	assert.Equal(t, BooleanNode{Value: true}, res.Status)

	evs := drain(c)
	require.Len(t, evs, 2)
	assert.Equal(t, EventControl, evs[0].Name)
	assert.Equal(t, TypeControl, evs[0].Type)
	assert.Equal(t, BooleanNode{Value: true}, evs[0].Value)
	assert.Equal(t, EventData, evs[1].Name)
	assert.Equal(t, true, evs[1].Data["success"])
	assert.Empty(t, evs[1].Reason)

	co.AssertExpectations(t)
	co.AssertNotCalled(t, "Select")
	co.AssertNotCalled(t, "SetCommandTerminationHandler", mock.Anything)
}

func TestClient_Control_SelectFails(t *testing.T) {
	co := newFakeControl()
	co.On("Select").Return(IED_ERROR_ACCESS_DENIED).Once()
	conn := controlConn(2, co)
	c, _ := newTestClient(t, conn)

	res, err := c.Control(switchRef, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, IED_ERROR_ACCESS_DENIED)
	assert.False(t, res.Operated)

	evs := drain(c)
	errs := ofType(evs, TypeError)
	require.Len(t, errs, 1)
	assert.Equal(t, "SBO select failed for IED/GGIO1.SPCSO1", errs[0].Reason)

	status := named(evs, EventData)
	require.Len(t, status, 1)
	assert.Equal(t, false, status[0].Data["success"])
	assert.Equal(t, "Control operation failed, current status reported", status[0].Reason)

	co.AssertNotCalled(t, "Operate", mock.Anything, mock.Anything)
	co.AssertCalled(t, "Destroy")
}

func TestClient_Control_OperateFails(t *testing.T) {
	co := newFakeControl()
	co.On("Operate", boolValue(false), uint64(0)).Return(errors.New("operate rejected")).Once()
	c, _ := newTestClient(t, controlConn(1, co))

	_, err := c.Control(switchRef, 0)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindControl))

	errs := ofType(drain(c), TypeError)
	require.Len(t, errs, 1)
	assert.Equal(t, "Control failed for IED/GGIO1.SPCSO1: operate rejected", errs[0].Reason)
}

func TestClient_Control_InvalidValue(t *testing.T) {
	co := newFakeControl()
	c, _ := newTestClient(t, controlConn(1, co))

	_, err := c.Control(switchRef, "maybe")
	require.Error(t, err)
	co.AssertNotCalled(t, "Operate", mock.Anything, mock.Anything)
	co.AssertCalled(t, "Destroy")
}

func TestClient_Control_Enhanced(t *testing.T) {
	cases := map[string]struct {
		deliver *CommandTermination
		want    TerminationOutcome
		event   string
		wantErr bool
	}{
		"positive termination": {
			deliver: &CommandTermination{Positive: true},
			want:    TerminationPositive,
			event:   EventTerminationPositive,
		},
		"negative termination": {
			deliver: &CommandTermination{LastApplError: LastApplError{CtlNum: 3, Error: 1, AddCause: 5}},
			want:    TerminationNegative,
			event:   EventTerminationNegative,
			wantErr: true,
		},
		"no termination": {
			want:  TerminationNotObserved,
			event: EventTerminationNotObserved,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			co := newFakeControl()
			var handler CommandTerminationHandler
			co.On("SetCommandTerminationHandler", mock.Anything).Run(func(args mock.Arguments) {
				handler = args.Get(0).(CommandTerminationHandler)
			}).Return().Once()
			co.On("Operate", boolValue(true), uint64(0)).Run(func(mock.Arguments) {
				if tc.deliver != nil {
					handler(*tc.deliver)
				}
			}).Return(nil).Once()
			c, _ := newTestClient(t, controlConn(3, co))

			res, err := c.Control(switchRef, true)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, IsKind(err, KindControl))
			} else {
				require.NoError(t, err)
			}
			assert.True(t, res.Operated)
			assert.Equal(t, tc.want, res.Termination)

			evs := named(drain(c), tc.event)
			require.Len(t, evs, 1)
			assert.Equal(t, switchRef, evs[0].DataRef)
			if tc.want == TerminationNegative {
				assert.Equal(t, LastApplError{CtlNum: 3, Error: 1, AddCause: 5}, res.LastApplError)
				assert.Equal(t, 5, evs[0].Data["addCause"])
			}
			co.AssertExpectations(t)
		})
	}
}

func TestClient_Control_SBOEnhancedSelectsWithValue(t *testing.T) {
	co := newFakeControl()
	co.On("SetCommandTerminationHandler", mock.Anything).Return().Once()
	co.On("SelectWithValue", boolValue(true)).Return(nil).Once()
	co.On("Operate", boolValue(true), uint64(0)).Return(nil).Once()
	c, _ := newTestClient(t, controlConn(4, co))

	res, err := c.Control(switchRef, 1)
	require.NoError(t, err)
	assert.Equal(t, CONTROL_MODEL_SBO_ENHANCED, res.Model)
	assert.Equal(t, TerminationNotObserved, res.Termination)
	co.AssertExpectations(t)
	co.AssertNotCalled(t, "Select")
}

func TestClient_Control_UnreadableModel(t *testing.T) {
	co := newFakeControl()
	co.On("Operate", boolValue(true), uint64(0)).Return(nil).Once()
	conn := controlConn(1, co)
	conn.readFn = func(ref string, fc FC) (*MmsValue, error) {
		if ref == switchRef+".stVal" {
			return boolValue(true), nil
		}
		return nil, IED_ERROR_TIMEOUT
	}
	c, _ := newTestClient(t, conn)

	res, err := c.Control(switchRef, true)
	require.NoError(t, err)
	assert.Equal(t, CONTROL_MODEL_DIRECT_NORMAL, res.Model)
}

func TestClient_Control_EncodedValueAndOrigin(t *testing.T) {
	co := &fakeControl{}
	co.On("SetOrigin", "test", 0).Return().Once()
	co.On("Destroy").Return()
	co.On("Operate", mock.MatchedBy(func(v *MmsValue) bool {
		return assert.ObjectsAreEqual(BooleanNode{Value: false}, FromMmsValue(v, ""))
	}), uint64(0)).Return(nil).Once()

	conn := controlConn(1, co)
	settings := testSettings()
	notSupported := 0
	settings.OriginCategory = &notSupported
	c := NewClient(&fakeEngine{main: conn}, settings, testLogger())
	require.NoError(t, c.Connect(testParams()))
	waitEvent(t, c, EventOpened)
	t.Cleanup(func() { _ = c.Close() })

	res, err := c.Control(switchRef, "false")
	require.NoError(t, err)
	assert.True(t, res.Operated)
	co.AssertExpectations(t)
}
