package binding

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Binding caches one bound contract per address.
type Binding struct {
	backend bind.ContractBackend

	pairsMutex     *sync.Mutex
	routersMutex   *sync.Mutex
	factoriesMutex *sync.Mutex
	tokensMutex    *sync.Mutex

	pairs     map[common.Address]*UniV2Pair
	routers   map[common.Address]*UniV2Router
	factories map[common.Address]*UniV2Factory
	tokens    map[common.Address]*ERC20
}

func NewBinding(backend bind.ContractBackend) *Binding {

	return &Binding{
		backend: backend,

		pairsMutex:     &sync.Mutex{},
		routersMutex:   &sync.Mutex{},
		factoriesMutex: &sync.Mutex{},
		tokensMutex:    &sync.Mutex{},

		pairs:     make(map[common.Address]*UniV2Pair),
		routers:   make(map[common.Address]*UniV2Router),
		factories: make(map[common.Address]*UniV2Factory),
		tokens:    make(map[common.Address]*ERC20),
	}
}

func (b *Binding) PairContract(pairAddress common.Address) (*UniV2Pair, error) {
	b.pairsMutex.Lock()
	defer b.pairsMutex.Unlock()

	if pair, exists := b.pairs[pairAddress]; exists {
		return pair, nil
	}
	pair, err := NewUniV2Pair(pairAddress, b.backend)
	if err != nil {
		return nil, fmt.Errorf("failed to add %s pair binding: %w", pairAddress.Hex(), err)
	}
	b.pairs[pairAddress] = pair
	return pair, nil
}

func (b *Binding) RouterContract(routerAddress common.Address) (*UniV2Router, error) {
	b.routersMutex.Lock()
	defer b.routersMutex.Unlock()

	if router, exists := b.routers[routerAddress]; exists {
		return router, nil
	}
	router, err := NewUniV2Router(routerAddress, b.backend)
	if err != nil {
		return nil, fmt.Errorf("failed to add %s router binding: %w", routerAddress.Hex(), err)
	}
	b.routers[routerAddress] = router
	return router, nil
}

func (b *Binding) FactoryContract(factoryAddress common.Address) (*UniV2Factory, error) {
	b.factoriesMutex.Lock()
	defer b.factoriesMutex.Unlock()

	if factory, exists := b.factories[factoryAddress]; exists {
		return factory, nil
	}
	factory, err := NewUniV2Factory(factoryAddress, b.backend)
	if err != nil {
		return nil, fmt.Errorf("failed to add %s factory binding: %w", factoryAddress.Hex(), err)
	}
	b.factories[factoryAddress] = factory
	return factory, nil
}

func (b *Binding) TokenContract(tokenAddress common.Address) (*ERC20, error) {
	b.tokensMutex.Lock()
	defer b.tokensMutex.Unlock()

	if token, exists := b.tokens[tokenAddress]; exists {
		return token, nil
	}
	token, err := NewERC20(tokenAddress, b.backend)
	if err != nil {
		return nil, fmt.Errorf("failed to add %s token binding: %w", tokenAddress.Hex(), err)
	}
	b.tokens[tokenAddress] = token
	return token, nil
}
