package tower

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
)

// ResolveSafeDoor 由服务端摘要与玩家种子推导本层唯一的安全门编号
//
// HMAC-SHA256 以服务端摘要为密钥、玩家种子为消息，取结果的
// 高52位映射到 [0,1) 再乘以门数。52位与 float64 尾数位宽一致，
// 映射不丢精度。同一摘要与种子永远得到同一扇安全门，玩家事后
// 可用公开的摘要自行回放验证。
func ResolveSafeDoor(digest, clientSeed string, doors int) int {
	mac := hmac.New(sha256.New, []byte(digest))
	mac.Write([]byte(clientSeed))
	sum := mac.Sum(nil)

	bits := binary.BigEndian.Uint64(sum[:8]) >> 12 // 高52位
	u := float64(bits) / float64(uint64(1)<<52)    // [0,1)

	safe := int(u * float64(doors))
	if safe >= doors {
		// u 严格小于1，仅浮点边界时可能越界
		safe = doors - 1
	}
	return safe
}
