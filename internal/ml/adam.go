package ml

import "math"

// gradients mirrors the network parameter layout for one batch update.
type gradients struct {
	w1 [][]float64
	b1 []float64
	w2 [][]float64
	b2 []float64
	w3 []float64
	b3 float64
}

func newGradients() *gradients {
	g := &gradients{
		w1: make([][]float64, hidden1Size),
		b1: make([]float64, hidden1Size),
		w2: make([][]float64, hidden2Size),
		b2: make([]float64, hidden2Size),
		w3: make([]float64, hidden2Size),
	}
	for i := range g.w1 {
		g.w1[i] = make([]float64, InputSize)
	}
	for i := range g.w2 {
		g.w2[i] = make([]float64, hidden1Size)
	}
	return g
}

func (g *gradients) scale(f float64) {
	for i := range g.w1 {
		for j := range g.w1[i] {
			g.w1[i][j] *= f
		}
		g.b1[i] *= f
	}
	for i := range g.w2 {
		for j := range g.w2[i] {
			g.w2[i][j] *= f
		}
		g.b2[i] *= f
	}
	for i := range g.w3 {
		g.w3[i] *= f
	}
	g.b3 *= f
}

// adam keeps first and second moment estimates per parameter.
type adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64
	t     int

	m *gradients
	v *gradients
}

func newAdam(lr float64) *adam {
	return &adam{
		lr:    lr,
		beta1: 0.9,
		beta2: 0.999,
		eps:   1e-8,
		m:     newGradients(),
		v:     newGradients(),
	}
}

func (a *adam) step(n *Network, g *gradients) {
	a.t++
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))

	upd := func(p *float64, grad float64, m, v *float64) {
		*m = a.beta1**m + (1-a.beta1)*grad
		*v = a.beta2**v + (1-a.beta2)*grad*grad
		mHat := *m / c1
		vHat := *v / c2
		*p -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
	}

	for i := range n.W1 {
		for j := range n.W1[i] {
			upd(&n.W1[i][j], g.w1[i][j], &a.m.w1[i][j], &a.v.w1[i][j])
		}
		upd(&n.B1[i], g.b1[i], &a.m.b1[i], &a.v.b1[i])
	}
	for i := range n.W2 {
		for j := range n.W2[i] {
			upd(&n.W2[i][j], g.w2[i][j], &a.m.w2[i][j], &a.v.w2[i][j])
		}
		upd(&n.B2[i], g.b2[i], &a.m.b2[i], &a.v.b2[i])
	}
	for i := range n.W3 {
		upd(&n.W3[i], g.w3[i], &a.m.w3[i], &a.v.w3[i])
	}
	upd(&n.B3, g.b3, &a.m.b3, &a.v.b3)
}
