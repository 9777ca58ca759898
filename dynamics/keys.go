package dynamics

import (
	"fmt"

	"github.com/dynograph/dynograph/factor"
)

// Variable keys pack a semantic role, up to two entity ids, and a time index into one
// uint64: role byte, two id bytes, then the time index in the low 32 bits. Roles occupy
// disjoint bytes, so no two (role, id, t) triples can collide, and the packing is
// invertible for diagnostic printing.

// Role identifies what a variable means. The byte values double as the short letters used
// in diagnostic output.
type Role byte

// The variable roles emitted by the graph builder.
const (
	RolePose       Role = 'p' // link pose
	RoleTwist      Role = 'V' // link twist
	RoleTwistAccel Role = 'A' // link twist acceleration
	RoleWrench     Role = 'F' // wrench of a joint on a link
	RoleTorque     Role = 'T' // joint torque or force
	RoleJointAngle Role = 'q' // joint coordinate
	RoleJointVel   Role = 'v' // joint coordinate velocity
	RoleJointAccel Role = 'a' // joint coordinate acceleration
	RolePhase      Role = 't' // phase step duration
)

// Each id gets one byte; a mechanism with more than 256 links or joints would collide
// keys, so out-of-range ids are a precondition violation.
func pack(role Role, id1, id2, t int) factor.Key {
	if id1 < 0 || id1 > 0xff || id2 < 0 || id2 > 0xff {
		panic(fmt.Sprintf("entity id out of range for key encoding: %d, %d", id1, id2))
	}
	return factor.Key(uint64(role)<<56 | uint64(uint8(id1))<<48 | uint64(uint8(id2))<<40 | uint64(uint32(t)))
}

// PoseKey returns the key of a link's pose variable at time t.
func PoseKey(link, t int) factor.Key { return pack(RolePose, link, 0, t) }

// TwistKey returns the key of a link's twist variable at time t.
func TwistKey(link, t int) factor.Key { return pack(RoleTwist, link, 0, t) }

// TwistAccelKey returns the key of a link's twist-acceleration variable at time t.
func TwistAccelKey(link, t int) factor.Key { return pack(RoleTwistAccel, link, 0, t) }

// WrenchKey returns the key of the wrench a joint applies on a link at time t, expressed in
// the link's center-of-mass frame.
func WrenchKey(link, joint, t int) factor.Key { return pack(RoleWrench, link, joint, t) }

// TorqueKey returns the key of a joint's torque variable at time t.
func TorqueKey(joint, t int) factor.Key { return pack(RoleTorque, joint, 0, t) }

// JointAngleKey returns the key of a joint's coordinate variable at time t.
func JointAngleKey(joint, t int) factor.Key { return pack(RoleJointAngle, joint, 0, t) }

// JointVelKey returns the key of a joint's velocity variable at time t.
func JointVelKey(joint, t int) factor.Key { return pack(RoleJointVel, joint, 0, t) }

// JointAccelKey returns the key of a joint's acceleration variable at time t.
func JointAccelKey(joint, t int) factor.Key { return pack(RoleJointAccel, joint, 0, t) }

// PhaseKey returns the key of the step-duration variable of a trajectory phase.
func PhaseKey(phase int) factor.Key { return pack(RolePhase, 0, 0, phase) }

// KeyInfo is the decoded form of a variable key.
type KeyInfo struct {
	Role Role
	ID1  int
	ID2  int
	T    int
}

// DecodeKey recovers the role, entity ids, and time index from a key.
func DecodeKey(k factor.Key) KeyInfo {
	return KeyInfo{
		Role: Role(uint64(k) >> 56),
		ID1:  int(uint8(uint64(k) >> 48)),
		ID2:  int(uint8(uint64(k) >> 40)),
		T:    int(uint32(uint64(k))),
	}
}

// KeyString renders a key for diagnostics, e.g. "p3_0" for link 3's pose at t=0, "F23_1"
// for the wrench of joint 3 on link 2 at t=1, and "dt0" for phase 0's duration.
func KeyString(k factor.Key) string {
	info := DecodeKey(k)
	switch info.Role {
	case RoleWrench:
		return fmt.Sprintf("%c%d%d_%d", info.Role, info.ID1, info.ID2, info.T)
	case RolePhase:
		return fmt.Sprintf("dt%d", info.T)
	default:
		return fmt.Sprintf("%c%d_%d", info.Role, info.ID1, info.T)
	}
}
