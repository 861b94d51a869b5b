package analysis

import (
	"context"
	"math"
	"math/cmplx"

	"github.com/san-kum/spectrasim/internal/dynamo"
	"github.com/san-kum/spectrasim/internal/models"
	"gonum.org/v1/gonum/mat"
)

// Emission computes the emission spectrum of a completed trajectory with the
// quantum regression theorem. Progress is reported once per energy sample and
// ctx is checked at every time and energy sample.
func Emission(ctx context.Context, p *models.Params, traj *dynamo.Trajectory, grid dynamo.EnergyGrid, progress dynamo.ProgressFunc) (*dynamo.Spectrum, error) {
	corr, err := Correlation(ctx, p, traj)
	if err != nil {
		return nil, err
	}

	times := traj.Grid.Times
	dt := traj.Grid.Step
	values := make([]complex128, grid.Len())
	for k, e := range grid.Energies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var s complex128
		for i, t := range times {
			s += corr[i] * cmplx.Exp(complex(0, e*t))
		}
		values[k] = s * complex(dt, 0)
		progress.Report(100 * float64(k+1) / float64(grid.Len()))
	}

	return &dynamo.Spectrum{Grid: grid, Values: values, Correlation: corr}, nil
}

// Correlation returns corr(t) = tr(exp(M t)·D) on the trajectory's time grid.
func Correlation(ctx context.Context, p *models.Params, traj *dynamo.Trajectory) ([]complex128, error) {
	if traj == nil || traj.Len() == 0 {
		return nil, &dynamo.SpectraError{Reason: "empty trajectory", Wrapped: dynamo.ErrNoTrajectory}
	}
	n := p.N
	if traj.Modes != n {
		return nil, &dynamo.SpectraError{Reason: "trajectory and parameters disagree on the number of modes"}
	}

	seed, err := correlationSeed(traj)
	if err != nil {
		return nil, err
	}
	gen := generator(p)

	expm := newComplexExp(n)
	re := mat.NewDense(n, n, nil)
	im := mat.NewDense(n, n, nil)

	corr := make([]complex128, traj.Len())
	for k, t := range traj.Grid.Times {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		expm.compute(gen, t, re, im)

		var tr complex128
		for i := 0; i < n; i++ {
			for l := 0; l < n; l++ {
				tr += complex(re.At(i, l), im.At(i, l)) * seed[l*n+i]
			}
		}
		corr[k] = tr
	}
	return corr, nil
}

// correlationSeed integrates the trajectory with the rectangle rule and builds
// D[i,j] = intN[j,i] / (π·norm) for photonic columns j, with D[i,0] = 0.
func correlationSeed(traj *dynamo.Trajectory) ([]complex128, error) {
	n := traj.Modes
	dt := traj.Grid.Step

	integral := make([]complex128, n*n)
	for _, s := range traj.States {
		for idx, v := range s {
			integral[idx] += v * complex(dt, 0)
		}
	}

	norm := 0.0
	for j := 1; j < n; j++ {
		norm += real(integral[j*n+j])
	}
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, &dynamo.SpectraError{Reason: "integrated photon population is zero", Wrapped: dynamo.ErrZeroNormalization}
	}

	seed := make([]complex128, n*n)
	scale := complex(math.Pi*norm, 0)
	for i := 0; i < n; i++ {
		for j := 1; j < n; j++ {
			seed[i*n+j] = integral[j*n+i] / scale
		}
	}
	return seed, nil
}

// generator builds M with M[i,i] = -i·W[i] - G[i]/2 and M[0,i] = M[i,0] = -i·g[i].
func generator(p *models.Params) []complex128 {
	n := p.N
	m := make([]complex128, n*n)
	for i := 0; i < n; i++ {
		m[i*n+i] = complex(-p.G[i]/2, -p.W[i])
	}
	for i := 1; i < n; i++ {
		m[i] = complex(0, -p.Coupling[i])
		m[i*n] = complex(0, -p.Coupling[i])
	}
	return m
}
