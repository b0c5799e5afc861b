package artifacts

import "fmt"

// Fixed key layout for receipt artifacts. The preprocessing and OCR
// stages write to these keys; the API only ever derives them, never
// scans for them.
func OriginalKey(ownerID, receiptID string) string {
	return fmt.Sprintf("original/%s/%s", ownerID, receiptID)
}

func ProcessedKey(ownerID, receiptID string) string {
	return fmt.Sprintf("processed/%s/%s.jpg", ownerID, receiptID)
}

func OCRKey(ownerID, receiptID string) string {
	return fmt.Sprintf("ocr/%s/%s.json", ownerID, receiptID)
}
