package rng

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
)

// Outcome é a sequência sorteada: exatamente 3 valores em [0,255].
// A ordem importa na comparação com as apostas.
type Outcome [3]uint8

var ErrEmptySeed = errors.New("empty seed material")

// DeriveOutcome expande o material de entropia do host em três valores limitados.
// Determinístico para o mesmo par (seed, height). Cada posição sai de uma fatia
// disjunta do digest, então nenhuma faixa de bytes alimenta duas posições.
func DeriveOutcome(seed []byte, height uint64) (Outcome, error) {
	var out Outcome
	if len(seed) == 0 {
		return out, ErrEmptySeed
	}

	var hbuf [8]byte
	binary.BigEndian.PutUint64(hbuf[:], height)

	h := sha256.New()
	h.Write(hbuf[:])
	h.Write(seed)
	digest := h.Sum(nil)

	// digest tem 32 bytes; três fatias de 10 bytes, cada uma reduzida por XOR
	for i := 0; i < 3; i++ {
		var b byte
		for _, s := range digest[i*10 : (i+1)*10] {
			b ^= s
		}
		out[i] = b
	}

	return out, nil
}

// Ints retorna a sequência como []int, útil para payloads JSON e validação.
func (o Outcome) Ints() [3]int {
	return [3]int{int(o[0]), int(o[1]), int(o[2])}
}
