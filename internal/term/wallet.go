package term

// WalletAddress derives the deterministic atom wallet address for atom using
// the CREATE2 rule: keccak256(0xff || factory || atom || implementationHash)[12:].
func WalletAddress(factory Address, implementationHash [32]byte, atom ID) Address {
	var a Address
	sum := keccak256([]byte{0xff}, factory[:], atom[:], implementationHash[:])
	copy(a[:], sum[12:])
	return a
}
