package output

import (
	"encoding/binary"

	"github.com/anyong/tangleclient/pkg/types"
)

// UnlockConditionType tags an unlock condition.
type UnlockConditionType uint8

// Unlock condition types. Which ones are mandatory or permitted depends on
// the output kind; the constructors enforce that.
const (
	UnlockAddress              UnlockConditionType = 0
	UnlockStorageDepositReturn UnlockConditionType = 1
	UnlockTimelock             UnlockConditionType = 2
	UnlockExpiration           UnlockConditionType = 3
	UnlockStateController      UnlockConditionType = 4
	UnlockGovernor             UnlockConditionType = 5
	UnlockImmutableAlias       UnlockConditionType = 6
)

// UnlockCondition gates the spendability of an output. The populated
// fields depend on Type: address-class conditions carry Address,
// storage deposit return carries Address (return address) and Amount,
// timelock and expiration carry UnixTime (expiration also Address).
type UnlockCondition struct {
	Type     UnlockConditionType `json:"type"`
	Address  types.Address       `json:"address"`
	Amount   uint64              `json:"amount,omitempty"`
	UnixTime uint32              `json:"unixTime,omitempty"`
}

// NewAddressUnlock requires a signature for the given address.
func NewAddressUnlock(addr types.Address) UnlockCondition {
	return UnlockCondition{Type: UnlockAddress, Address: addr}
}

// NewStorageDepositReturnUnlock requires the consumer to return amount
// base tokens to the return address.
func NewStorageDepositReturnUnlock(returnAddr types.Address, amount uint64) UnlockCondition {
	return UnlockCondition{Type: UnlockStorageDepositReturn, Address: returnAddr, Amount: amount}
}

// NewTimelockUnlock forbids consumption before the given unix time.
func NewTimelockUnlock(unixTime uint32) UnlockCondition {
	return UnlockCondition{Type: UnlockTimelock, UnixTime: unixTime}
}

// NewExpirationUnlock hands the output back to the return address once
// the given unix time has passed.
func NewExpirationUnlock(returnAddr types.Address, unixTime uint32) UnlockCondition {
	return UnlockCondition{Type: UnlockExpiration, Address: returnAddr, UnixTime: unixTime}
}

// NewStateControllerUnlock names the alias state controller address.
func NewStateControllerUnlock(addr types.Address) UnlockCondition {
	return UnlockCondition{Type: UnlockStateController, Address: addr}
}

// NewGovernorUnlock names the alias governor address.
func NewGovernorUnlock(addr types.Address) UnlockCondition {
	return UnlockCondition{Type: UnlockGovernor, Address: addr}
}

// NewImmutableAliasUnlock binds a foundry to its controlling alias address.
func NewImmutableAliasUnlock(aliasAddr types.Address) UnlockCondition {
	return UnlockCondition{Type: UnlockImmutableAlias, Address: aliasAddr}
}

// serialize appends the canonical byte form of the condition.
func (uc UnlockCondition) serialize(buf []byte) []byte {
	buf = append(buf, byte(uc.Type))
	switch uc.Type {
	case UnlockAddress, UnlockStateController, UnlockGovernor, UnlockImmutableAlias:
		buf = append(buf, uc.Address.Bytes()...)
	case UnlockStorageDepositReturn:
		buf = append(buf, uc.Address.Bytes()...)
		buf = binary.LittleEndian.AppendUint64(buf, uc.Amount)
	case UnlockTimelock:
		buf = binary.LittleEndian.AppendUint32(buf, uc.UnixTime)
	case UnlockExpiration:
		buf = append(buf, uc.Address.Bytes()...)
		buf = binary.LittleEndian.AppendUint32(buf, uc.UnixTime)
	}
	return buf
}

// hasCondition reports whether the set contains a condition of the type.
func hasCondition(conds []UnlockCondition, t UnlockConditionType) bool {
	for _, uc := range conds {
		if uc.Type == t {
			return true
		}
	}
	return false
}
