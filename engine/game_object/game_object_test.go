package game_object

import (
	"math"
	"testing"

	"github.com/What42Pizza/WGPU-Template/common"
	"github.com/What42Pizza/WGPU-Template/engine/model"
)

func TestNewGameObjectDefaults(t *testing.T) {
	obj := NewGameObject()

	if !obj.Enabled() {
		t.Error("new object should be enabled")
	}
	sx, sy, sz := obj.Scale()
	if sx != 1 || sy != 1 || sz != 1 {
		t.Errorf("default scale = (%v, %v, %v), want (1, 1, 1)", sx, sy, sz)
	}
	px, py, pz := obj.Position()
	if px != 0 || py != 0 || pz != 0 {
		t.Errorf("default position = (%v, %v, %v), want origin", px, py, pz)
	}
}

func TestGameObjectBuilderOptions(t *testing.T) {
	obj := NewGameObject(
		WithID(42),
		WithEnabled(false),
		WithEphemeral(true),
		WithPosition(1, 2, 3),
		WithScale(2, 2, 2),
		WithRotation(0.1, 0.2, 0.3),
		WithRotationSpeed(1, 0, 0),
	)

	if obj.ID() != 42 {
		t.Errorf("ID = %d, want 42", obj.ID())
	}
	if obj.Enabled() {
		t.Error("expected disabled")
	}
	if !obj.Ephemeral() {
		t.Error("expected ephemeral")
	}

	pos, scale, rot, rotSpeed := obj.TransformData()
	if pos != ([3]float32{1, 2, 3}) {
		t.Errorf("position = %v", pos)
	}
	if scale != ([3]float32{2, 2, 2}) {
		t.Errorf("scale = %v", scale)
	}
	if rot != ([3]float32{0.1, 0.2, 0.3}) {
		t.Errorf("rotation = %v", rot)
	}
	if rotSpeed != ([3]float32{1, 0, 0}) {
		t.Errorf("rotation speed = %v", rotSpeed)
	}
}

func TestTickAdvancesRotationBySpeed(t *testing.T) {
	obj := NewGameObject(
		WithRotation(0, 1, 0),
		WithRotationSpeed(0.5, 2, -1),
	)

	obj.Tick(0.5)

	rx, ry, rz := obj.Rotation()
	want := [3]float32{0.25, 2, -0.5}
	for i, got := range [3]float32{rx, ry, rz} {
		if math.Abs(float64(got-want[i])) > 1e-6 {
			t.Errorf("rotation[%d] = %v, want %v", i, got, want[i])
		}
	}

	// A second tick accumulates.
	obj.Tick(0.5)
	rx, ry, rz = obj.Rotation()
	want = [3]float32{0.5, 3, -1}
	for i, got := range [3]float32{rx, ry, rz} {
		if math.Abs(float64(got-want[i])) > 1e-6 {
			t.Errorf("after second tick rotation[%d] = %v, want %v", i, got, want[i])
		}
	}
}

func TestInstanceTransformMatchesBuildModelMatrix(t *testing.T) {
	obj := NewGameObject(
		WithPosition(4, 5, 6),
		WithRotation(0.3, 0.6, 0.9),
		WithScale(2, 3, 4),
	)

	got := obj.InstanceTransform().Matrix()

	var want [16]float32
	common.BuildModelMatrix(want[:], 4, 5, 6, 0.3, 0.6, 0.9, 2, 3, 4)

	if got != want {
		t.Errorf("InstanceTransform = %v, want %v", got, want)
	}
}

func TestInstanceTransformIdentityAtDefaults(t *testing.T) {
	obj := NewGameObject()

	got := obj.InstanceTransform()
	want := model.IdentityInstance()
	if got.Matrix() != want.Matrix() {
		t.Errorf("default transform = %v, want identity", got.Matrix())
	}
}

func TestSettersUpdateTransform(t *testing.T) {
	obj := NewGameObject()
	obj.SetPosition(7, 8, 9)
	obj.SetScale(0.5, 0.5, 0.5)
	obj.SetRotationSpeed(0, 1, 0)

	pos, scale, _, rotSpeed := obj.TransformData()
	if pos != ([3]float32{7, 8, 9}) {
		t.Errorf("position = %v", pos)
	}
	if scale != ([3]float32{0.5, 0.5, 0.5}) {
		t.Errorf("scale = %v", scale)
	}
	if rotSpeed != ([3]float32{0, 1, 0}) {
		t.Errorf("rotation speed = %v", rotSpeed)
	}
}
