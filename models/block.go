package models

import (
	"bytes"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tchajed/marshal"
)

// Block is one ledger entry: a signed ballot triplet linked to its
// predecessor by hash.
type Block struct {
	Index     uint64 `json:"index"`
	BallotNum uint64 `json:"ballot_num"`
	Timestamp int64  `json:"timestamp"`
	Data      []byte `json:"data"`
	PrevHash  []byte `json:"prev_hash"`
	Hash      []byte `json:"hash"`
}

func NewBlock(index, ballotNum uint64, data []byte, prevHash []byte) *Block {
	block := &Block{
		Index:     index,
		BallotNum: ballotNum,
		Timestamp: time.Now().Unix(),
		Data:      data,
		PrevHash:  prevHash,
	}
	block.Hash = block.calculateHash()
	return block
}

// GenesisHash is the PrevHash of the first block.
func GenesisHash() []byte {
	return make([]byte, 32)
}

func (b *Block) calculateHash() []byte {
	var enc []byte
	enc = marshal.WriteInt(enc, b.Index)
	enc = marshal.WriteInt(enc, b.BallotNum)
	enc = marshal.WriteInt(enc, uint64(b.Timestamp))
	enc = marshal.WriteInt(enc, uint64(len(b.Data)))
	enc = marshal.WriteBytes(enc, b.Data)
	enc = marshal.WriteBytes(enc, b.PrevHash)
	return crypto.Keccak256(enc)
}

func (b *Block) Validate() bool {
	return bytes.Equal(b.calculateHash(), b.Hash)
}

// ValidateChain checks hashes, links and indices of the whole chain.
func ValidateChain(blocks []*Block) error {
	prevHash := GenesisHash()
	for i, block := range blocks {
		if block.Index != uint64(i) {
			return fmt.Errorf("block %d has invalid index %d", i, block.Index)
		}
		if !block.Validate() {
			return fmt.Errorf("block %d has invalid hash", i)
		}
		if !bytes.Equal(block.PrevHash, prevHash) {
			return fmt.Errorf("block %d has invalid previous hash link", i)
		}
		prevHash = block.Hash
	}
	return nil
}
