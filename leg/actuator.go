package leg

import (
	"fmt"
	"math"

	"github.com/adammck/dynamixel/network"
	"github.com/adammck/dynamixel/servo"
	"github.com/adammck/dynamixel/servo/ax"
)

// Actuator dispatches solved joint angles (radians) downstream. It is the
// boundary between the Leg Model's IK solve and the physical or simulated
// hardware; InverseKinematics calls it once per leg per tick.
type Actuator interface {
	MoveTo(hipYaw, femurPitch, tibiaPitch float64) error
}

// NullActuator discards joint commands. Useful for tests and for legs that
// exist only to be walked through trajectory math.
type NullActuator struct{}

func (NullActuator) MoveTo(hipYaw, femurPitch, tibiaPitch float64) error { return nil }

// DynamixelActuator drives one leg's three AX-series servos over a shared
// half-duplex bus, the way the teacher's servos.New/components/legs/leg.go
// MoveTo dispatch does: buffered writes per servo. Nothing in this module
// sends the ACTION that applies the buffered writes.
type DynamixelActuator struct {
	Hip   *servo.Servo
	Femur *servo.Servo
	Tibia *servo.Servo
}

// NewDynamixelActuator pings and configures the three servos at baseID+1..3
// on n, mirroring servos.New's bring-up sequence (return level, torque
// enable, move speed, buffered writes).
func NewDynamixelActuator(n *network.Network, baseID int) (*DynamixelActuator, error) {
	hip, err := newServo(n, baseID+1)
	if err != nil {
		return nil, fmt.Errorf("hip servo: %w", err)
	}
	femur, err := newServo(n, baseID+2)
	if err != nil {
		return nil, fmt.Errorf("femur servo: %w", err)
	}
	tibia, err := newServo(n, baseID+3)
	if err != nil {
		return nil, fmt.Errorf("tibia servo: %w", err)
	}

	return &DynamixelActuator{Hip: hip, Femur: femur, Tibia: tibia}, nil
}

func newServo(n *network.Network, id int) (*servo.Servo, error) {
	s, err := ax.New(n, id)
	if err != nil {
		return nil, err
	}
	if err := s.SetReturnLevel(1); err != nil {
		return nil, fmt.Errorf("%w (while setting return level)", err)
	}
	if err := s.Ping(); err != nil {
		return nil, fmt.Errorf("%w (while pinging)", err)
	}
	if err := s.SetReturnDelayTime(0); err != nil {
		return nil, fmt.Errorf("%w (while setting return delay)", err)
	}
	if err := s.SetTorqueEnable(true); err != nil {
		return nil, fmt.Errorf("%w (while enabling torque)", err)
	}
	if err := s.SetMovingSpeed(1023); err != nil {
		return nil, fmt.Errorf("%w (while setting move speed)", err)
	}
	s.SetBuffered(true)
	return s, nil
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// MoveTo converts radians to the degrees the dynamixel servo API expects and
// issues one buffered MoveTo per joint.
func (a *DynamixelActuator) MoveTo(hipYaw, femurPitch, tibiaPitch float64) error {
	if err := a.Hip.MoveTo(degrees(hipYaw)); err != nil {
		return fmt.Errorf("hip MoveTo: %w", err)
	}
	if err := a.Femur.MoveTo(degrees(femurPitch)); err != nil {
		return fmt.Errorf("femur MoveTo: %w", err)
	}
	if err := a.Tibia.MoveTo(degrees(tibiaPitch)); err != nil {
		return fmt.Errorf("tibia MoveTo: %w", err)
	}
	return nil
}

// Shutdown disables torque and turns off the LED on all three servos,
// mirroring servos.Shutdown.
func (a *DynamixelActuator) Shutdown() {
	for _, s := range []*servo.Servo{a.Hip, a.Femur, a.Tibia} {
		s.SetTorqueEnable(false)
		s.SetLED(false)
	}
}
