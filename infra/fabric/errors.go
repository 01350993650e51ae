package fabric

import (
	"fmt"

	corefabric "github.com/kilianp07/gridsim/core/fabric"
)

func errDuplicate(address string) error {
	return fmt.Errorf("address %s already connected", address)
}

func deliveryErr(m corefabric.Message, err error) error {
	return fmt.Errorf("%w: %s to %s: %w", corefabric.ErrDeliveryFailure, m.Topic, m.To, err)
}
