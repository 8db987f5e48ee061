package domain

// BytesPerGiB 配额表单以整 GiB 录入，库里按字节存储
const BytesPerGiB int64 = 1 << 30

// GiBToBytes 整 GiB 转字节
func GiBToBytes(gib int64) int64 {
	return gib * BytesPerGiB
}

// BytesToGiB 字节转整 GiB（向下取整）
func BytesToGiB(b int64) int64 {
	return b / BytesPerGiB
}
